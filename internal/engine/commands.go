package engine

import "time"

// Command is anything the room feeds into Game.Apply.
type Command interface{ isCommand() }

type Create struct {
	ConnID string
	Name   string
	Seats  []string // single mode: names enumerated on the host device
}

type Join struct {
	ConnID string
	Name   string
}

type Leave struct{ ConnID string }

// Disconnect is a lost transport, not a deliberate leave.
type Disconnect struct{ ConnID string }

type Heartbeat struct{ ConnID string }

type StartGame struct{ ConnID string }

type StartGameSingle struct {
	ConnID string
	Names  []string
}

type NextRound struct{ ConnID string }

type StartVoting struct{ ConnID string }

type SubmitHint struct {
	ConnID string
	Text   string
}

type CastVote struct {
	ConnID   string
	TargetID string
}

type NextPlayer struct{ ConnID string }

type GetMyRole struct{ ConnID string }

type Sweep struct{ At time.Time }

type TimerFired struct{ Timer TimerKey }

func (Create) isCommand()          {}
func (Join) isCommand()            {}
func (Leave) isCommand()           {}
func (Disconnect) isCommand()      {}
func (Heartbeat) isCommand()       {}
func (StartGame) isCommand()       {}
func (StartGameSingle) isCommand() {}
func (NextRound) isCommand()       {}
func (StartVoting) isCommand()     {}
func (SubmitHint) isCommand()      {}
func (CastVote) isCommand()        {}
func (NextPlayer) isCommand()      {}
func (GetMyRole) isCommand()       {}
func (Sweep) isCommand()           {}
func (TimerFired) isCommand()      {}

// SenderOf returns the connection that issued cmd, or "" for internal commands.
func SenderOf(cmd Command) string {
	switch c := cmd.(type) {
	case Create:
		return c.ConnID
	case Join:
		return c.ConnID
	case Leave:
		return c.ConnID
	case Disconnect:
		return c.ConnID
	case Heartbeat:
		return c.ConnID
	case StartGame:
		return c.ConnID
	case StartGameSingle:
		return c.ConnID
	case NextRound:
		return c.ConnID
	case StartVoting:
		return c.ConnID
	case SubmitHint:
		return c.ConnID
	case CastVote:
		return c.ConnID
	case NextPlayer:
		return c.ConnID
	case GetMyRole:
		return c.ConnID
	}
	return ""
}
