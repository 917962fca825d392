package engine

// Message is an outbound event. Name is the wire event type.
type Message interface {
	Name() string
}

type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsBot     bool   `json:"isBot,omitempty"`
	IsHost    bool   `json:"isHost,omitempty"`
	Connected bool   `json:"connected"`
}

type LobbyUpdate struct {
	Code       string       `json:"code"`
	Players    []PlayerView `json:"players"`
	GameMode   GameMode     `json:"gameMode"`
	MaxPlayers int          `json:"maxPlayers"`
	HostID     string       `json:"hostId"`
	Started    bool         `json:"started"`
	Phase      Phase        `json:"phase"`
}

type CountdownStart struct {
	Duration int `json:"duration"`
}

type YourRole struct {
	Role   string `json:"role"`
	Word   string `json:"word"`
	Note   string `json:"note"`
	IsHost bool   `json:"isHost"`
}

type SingleRole struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Word string `json:"word"`
	Note string `json:"note"`
}

type SingleRoles struct {
	Roles []SingleRole `json:"roles"`
}

type SingleNext struct {
	Index  int    `json:"index"`
	Player string `json:"name,omitempty"`
	Done   bool   `json:"done"`
}

type GameStarted struct {
	Players []PlayerView `json:"players"`
	Round   int          `json:"round"`
}

type PlayerTurn struct {
	Player   string `json:"player"`
	PlayerID string `json:"playerId"`
	TimeLeft int    `json:"timeLeft"`
}

type TimerUpdate struct {
	TimeLeft int `json:"timeLeft"`
}

type Hint struct {
	From  string `json:"from"`
	Text  string `json:"text"`
	IsBot bool   `json:"isBot,omitempty"`
}

type VotingStarted struct {
	Players []PlayerView `json:"players"`
}

type VoteCast struct {
	From       string `json:"from"`
	FromID     string `json:"fromId"`
	TargetName string `json:"targetName"`
	TargetID   string `json:"targetId"`
}

type GameEnded struct {
	ImposterEjected bool           `json:"imposterEjected"`
	EjectedPlayer   string         `json:"ejectedPlayer,omitempty"`
	Imposter        string         `json:"imposter,omitempty"`
	Votes           map[string]int `json:"votes"`
	ImposterLeft    bool           `json:"imposterLeft,omitempty"`
}

type RoundRestarted struct {
	Round int `json:"round"`
}

type PlayerLeft struct {
	PlayerName string `json:"playerName"`
	Reason     string `json:"reason"`
}

// Kicked tells a still-connected player that the room dropped them.
type Kicked struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type YouAreHost struct{}

type ErrorMsg struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

func (LobbyUpdate) Name() string    { return "lobbyUpdate" }
func (CountdownStart) Name() string { return "countdownStart" }
func (YourRole) Name() string       { return "yourRole" }
func (SingleRoles) Name() string    { return "single:roles" }
func (SingleNext) Name() string     { return "single:next" }
func (GameStarted) Name() string    { return "gameStarted" }
func (PlayerTurn) Name() string     { return "playerTurn" }
func (TimerUpdate) Name() string    { return "timerUpdate" }
func (Hint) Name() string           { return "hint" }
func (VotingStarted) Name() string  { return "votingStarted" }
func (VoteCast) Name() string       { return "voteCast" }
func (GameEnded) Name() string      { return "gameEnded" }
func (RoundRestarted) Name() string { return "roundRestarted" }
func (PlayerLeft) Name() string     { return "playerLeft" }
func (Kicked) Name() string         { return "kicked" }
func (YouAreHost) Name() string     { return "youAreHost" }
func (ErrorMsg) Name() string       { return "errorMsg" }

func ErrorMessage(err error) ErrorMsg {
	e := AsError(err)
	return ErrorMsg{Code: e.Code, Text: e.Message}
}
