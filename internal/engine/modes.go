package engine

import "strings"

type GameMode string

const (
	ModeLocal  GameMode = "local"
	ModeSingle GameMode = "single"
	ModeBot    GameMode = "ki-bot"
)

// ModeRules is everything that differs between game modes.
type ModeRules struct {
	MinPlayers   int // seats needed for a round, bots and device seats included
	MinHumans    int
	AcceptsJoins bool
	BotFill      bool
	TurnPhase    bool
	SingleDevice bool
}

var modeTable = map[GameMode]ModeRules{
	ModeLocal: {
		MinPlayers:   3,
		MinHumans:    3,
		AcceptsJoins: true,
	},
	ModeSingle: {
		MinPlayers:   3,
		MinHumans:    1,
		SingleDevice: true,
	},
	ModeBot: {
		MinPlayers:   3,
		MinHumans:    1,
		AcceptsJoins: true,
		BotFill:      true,
		TurnPhase:    true,
	},
}

// ParseMode accepts the wire value of gameMode. Empty means local.
func ParseMode(s string) (GameMode, error) {
	m := GameMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeLocal, nil
	}
	if _, ok := modeTable[m]; !ok {
		return "", ErrWrongMode
	}
	return m, nil
}

func RulesFor(m GameMode) (ModeRules, bool) {
	r, ok := modeTable[m]
	return r, ok
}
