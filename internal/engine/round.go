package engine

import (
	"strings"
	"unicode/utf8"
)

const maxHintLength = 140

func (g *Game) startGame(c StartGame) ([]Event, error) {
	if g.Rules.SingleDevice {
		return nil, ErrWrongMode
	}
	if c.ConnID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	if !g.enoughPlayers() {
		return nil, ErrNotEnoughPlayers
	}

	var events []Event
	if g.fillBots() {
		events = append(events, g.lobbyUpdate())
	}
	g.Started = true
	return append(events, g.enterCountdown()...), nil
}

func (g *Game) startGameSingle(c StartGameSingle) ([]Event, error) {
	if !g.Rules.SingleDevice {
		return nil, ErrWrongMode
	}
	if c.ConnID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Phase != PhaseLobby && g.Phase != PhaseResolved {
		return nil, ErrWrongPhase
	}

	var names []string
	for _, raw := range c.Names {
		if n, err := ValidateName(raw); err == nil {
			names = append(names, n)
		}
	}
	if len(names) > 0 {
		if len(names) < g.Rules.MinPlayers {
			return nil, ErrNotEnoughPlayers
		}
		if len(names) > g.MaxPlayers {
			return nil, ErrRoomFull
		}
		g.reseat(names)
	} else if len(g.order) < g.Rules.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	g.Started = true
	events := []Event{g.lobbyUpdate()}
	return append(events, g.enterCountdown()...), nil
}

// reseat replaces every device seat with names; the host takes names[0].
func (g *Game) reseat(names []string) {
	host := g.players[g.HostID]
	for _, id := range g.order {
		if g.players[id].Local {
			delete(g.players, id)
		}
	}
	g.order = []string{host.ID}
	if g.ImposterID != host.ID {
		g.ImposterID = ""
	}
	host.Name = names[0]
	for _, n := range names[1:] {
		g.addSeat(n)
	}
}

func (g *Game) nextRound(c NextRound) ([]Event, error) {
	if c.ConnID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Phase != PhaseResolved {
		return nil, ErrWrongPhase
	}
	if !g.enoughPlayers() {
		return nil, ErrNotEnoughPlayers
	}

	events := g.cancelRoundTimers()
	events = append(events, Broadcast{Msg: RoundRestarted{Round: g.Round + 1}})
	if g.fillBots() {
		events = append(events, g.lobbyUpdate())
	}
	return append(events, g.enterCountdown()...), nil
}

func (g *Game) enoughPlayers() bool {
	if g.humanCount() < g.Rules.MinHumans {
		return false
	}
	return g.Rules.BotFill || len(g.order) >= g.Rules.MinPlayers
}

// fillBots tops the room up to the mode's minimum with bots.
func (g *Game) fillBots() bool {
	if !g.Rules.BotFill {
		return false
	}
	added := false
	for len(g.order) < g.Rules.MinPlayers && len(g.order) < g.MaxPlayers {
		g.addBot()
		added = true
	}
	return added
}

func (g *Game) enterCountdown() []Event {
	g.Phase = PhaseCountdown
	g.RoundActive = false
	g.votes = make(map[string]string)
	g.ballots = nil
	g.turnOrder = nil
	g.TurnIndex = 0
	return []Event{
		Broadcast{Msg: CountdownStart{Duration: ceilSeconds(g.settings.Countdown)}},
		ArmTimer{Timer: TimerKey{Kind: TimerCountdown}, After: g.settings.Countdown},
	}
}

func (g *Game) revealRoles() []Event {
	g.Pair = pickPair(g.rng, g.pairs, g.Pair)
	g.ImposterID = g.order[g.rng.IntN(len(g.order))]
	g.Round++
	g.RoundActive = true
	g.Phase = PhaseReveal
	for id, p := range g.players {
		p.Role = RoleCrew
		if id == g.ImposterID {
			p.Role = RoleImposter
		}
	}

	if g.Rules.SingleDevice {
		g.reveal = make([]SingleRole, 0, len(g.order))
		for _, id := range g.order {
			p := g.players[id]
			r := g.yourRole(p)
			g.reveal = append(g.reveal, SingleRole{Name: p.Name, Role: r.Role, Word: r.Word, Note: r.Note})
		}
		g.revealAt = 0
		return []Event{
			Direct{To: g.HostID, Msg: SingleRoles{Roles: g.reveal}},
			Direct{To: g.HostID, Msg: g.singleNext()},
		}
	}

	var events []Event
	for _, id := range g.order {
		if p := g.players[id]; p.human() && p.Connected {
			events = append(events, Direct{To: id, Msg: g.yourRole(p)})
		}
	}
	events = append(events, Broadcast{Msg: GameStarted{Players: g.playerViews(), Round: g.Round}})
	switch {
	case g.Rules.TurnPhase:
		events = append(events, g.enterTurns()...)
	case g.settings.Discussion > 0:
		events = append(events, ArmTimer{Timer: TimerKey{Kind: TimerDiscussion}, After: g.settings.Discussion})
	}
	return events
}

func (g *Game) yourRole(p *Player) YourRole {
	if p.Role == RoleImposter {
		return YourRole{
			Role:   "Imposter",
			Word:   g.Pair.Imposter,
			Note:   "(Du bist der Imposter – du siehst nur den Tipp!)",
			IsHost: p.ID == g.HostID,
		}
	}
	return YourRole{
		Role:   "Crew",
		Word:   g.Pair.Crew,
		Note:   "(Du bist in der Crew.)",
		IsHost: p.ID == g.HostID,
	}
}

func (g *Game) wordFor(p *Player) string {
	if p.Role == RoleImposter {
		return g.Pair.Imposter
	}
	return g.Pair.Crew
}

func (g *Game) singleNext() SingleNext {
	if g.revealAt >= len(g.reveal) {
		return SingleNext{Index: g.revealAt, Done: true}
	}
	return SingleNext{Index: g.revealAt, Player: g.reveal[g.revealAt].Name}
}

func (g *Game) nextPlayer(c NextPlayer) ([]Event, error) {
	if !g.Rules.SingleDevice {
		return nil, ErrWrongMode
	}
	if c.ConnID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Phase != PhaseReveal {
		return nil, ErrWrongPhase
	}
	g.revealAt++
	if g.revealAt >= len(g.reveal) {
		g.RoundActive = false
		g.Phase = PhaseResolved
	}
	return []Event{Direct{To: c.ConnID, Msg: g.singleNext()}}, nil
}

func (g *Game) getMyRole(c GetMyRole) ([]Event, error) {
	p, ok := g.players[c.ConnID]
	if !ok {
		return nil, ErrNotInRoom
	}
	if g.Round == 0 || g.Phase == PhaseCountdown {
		return nil, ErrWrongPhase
	}
	if g.Rules.SingleDevice {
		if c.ConnID != g.HostID {
			return nil, ErrNotHost
		}
		return []Event{
			Direct{To: c.ConnID, Msg: SingleRoles{Roles: g.reveal}},
			Direct{To: c.ConnID, Msg: g.singleNext()},
		}, nil
	}
	return []Event{Direct{To: c.ConnID, Msg: g.yourRole(p)}}, nil
}

func (g *Game) startVoting(c StartVoting) ([]Event, error) {
	if c.ConnID != g.HostID {
		return nil, ErrNotHost
	}
	if g.Rules.SingleDevice {
		return nil, ErrWrongMode
	}
	if g.Phase != PhaseReveal && g.Phase != PhaseTurns {
		return nil, ErrWrongPhase
	}
	events := []Event{
		CancelTimer{Timer: TimerKey{Kind: TimerDiscussion}},
		CancelTimer{Timer: TimerKey{Kind: TimerTurn}},
	}
	return append(events, g.enterVoting()...), nil
}

func (g *Game) submitHint(c SubmitHint) ([]Event, error) {
	p, ok := g.players[c.ConnID]
	if !ok {
		return nil, ErrNotInRoom
	}
	if g.Rules.SingleDevice {
		return nil, ErrWrongMode
	}
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return nil, ErrBadRequest
	}
	if utf8.RuneCountInString(text) > maxHintLength {
		text = string([]rune(text)[:maxHintLength])
	}
	if !g.RoundActive {
		return nil, ErrWrongPhase
	}

	events := []Event{Broadcast{Msg: Hint{From: p.Name, Text: text}}}
	if g.Phase == PhaseTurns && g.currentTurn() == c.ConnID {
		events = append(events, CancelTimer{Timer: TimerKey{Kind: TimerTurn}})
		g.TurnIndex++
		events = append(events, g.beginTurn()...)
	}
	return events, nil
}
