package types

// Client -> Server
//
// Every command is one JSON object. "id" is optional; when present the
// server answers createRoom and joinRoom with an ack carrying the same id.
//
//   createRoom:      name, gameMode ("local" | "single" | "ki-bot"), playerNames (single only)
//   joinRoom:        code, name
//   startGame:       code
//   startGameSingle: code, names
//   nextRound:       code
//   startVoting:     code
//   submitHint:      code, text
//   vote:            code, targetId
//   leaveGame:       code
//   heartbeat:       code (optional)
//   nextPlayer:      code
//   getMyRole:       code
const (
	CmdCreateRoom      = "createRoom"
	CmdJoinRoom        = "joinRoom"
	CmdStartGame       = "startGame"
	CmdStartGameSingle = "startGameSingle"
	CmdNextRound       = "nextRound"
	CmdStartVoting     = "startVoting"
	CmdSubmitHint      = "submitHint"
	CmdVote            = "vote"
	CmdLeaveGame       = "leaveGame"
	CmdHeartbeat       = "heartbeat"
	CmdNextPlayer      = "nextPlayer"
	CmdGetMyRole       = "getMyRole"
)

type ClientMessage struct {
	Type        string   `json:"type"`
	ID          string   `json:"id,omitempty"`
	Code        string   `json:"code,omitempty"`
	Name        string   `json:"name,omitempty"`
	GameMode    string   `json:"gameMode,omitempty"`
	PlayerNames []string `json:"playerNames,omitempty"`
	Names       []string `json:"names,omitempty"`
	TargetID    string   `json:"targetId,omitempty"`
	Text        string   `json:"text,omitempty"`
}

// Server -> Client
//
// Events are {"type": <event>, "data": {...}}; acks are
// {"type": "ack", "replyTo": <id>, "data": {...}}.
const (
	TypeAck   = "ack"
	TypeHello = "hello"
)

type ServerMessage struct {
	Type    string `json:"type"`
	ReplyTo string `json:"replyTo,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Hello is the first message on every connection.
type Hello struct {
	ConnID string `json:"connId"`
}

type CreateAck struct {
	Code         string `json:"code"`
	AssignedName string `json:"assignedName"`
}

type JoinAck struct {
	OK           bool   `json:"ok"`
	Code         string `json:"code"`
	AssignedName string `json:"assignedName"`
	Rejoined     bool   `json:"rejoined,omitempty"`
}

// ErrorAck answers a failed createRoom or joinRoom.
type ErrorAck struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func Event(name string, data any) ServerMessage {
	return ServerMessage{Type: name, Data: data}
}

func Ack(replyTo string, data any) ServerMessage {
	return ServerMessage{Type: TypeAck, ReplyTo: replyTo, Data: data}
}
