package engine

import "time"

// Event is an effect produced by Apply. The room actor carries them out in
// order: messages go to connections, timer events arm or cancel timers.
type Event interface{ isEvent() }

type Broadcast struct{ Msg Message }

type Direct struct {
	To  string
	Msg Message
}

type ArmTimer struct {
	Timer TimerKey
	After time.Duration
}

type CancelTimer struct{ Timer TimerKey }

// Joined reports the outcome of Create or Join to the caller.
type Joined struct {
	ConnID     string
	Name       string
	Rejoined   bool
	PreviousID string
}

// Removed means the session is gone and its connection must no longer be
// addressed by the room.
type Removed struct {
	ID     string
	Reason LeaveReason
}

// Closed means no transport-backed session remains and the room must be
// torn down.
type Closed struct{}

func (Broadcast) isEvent()   {}
func (Direct) isEvent()      {}
func (ArmTimer) isEvent()    {}
func (CancelTimer) isEvent() {}
func (Joined) isEvent()      {}
func (Removed) isEvent()     {}
func (Closed) isEvent()      {}

type TimerKind string

const (
	TimerCountdown  TimerKind = "countdown"
	TimerDiscussion TimerKind = "discussion"
	TimerTurn       TimerKind = "turn"
	TimerVoting     TimerKind = "voting"
	TimerBotVote    TimerKind = "botVote"
	TimerGrace      TimerKind = "grace"
)

// TimerKey identifies one armable timer. Subject is the player the timer
// belongs to, empty for room-wide timers.
type TimerKey struct {
	Kind    TimerKind
	Subject string
}

func (k TimerKey) String() string {
	if k.Subject == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Subject
}

type LeaveReason string

const (
	ReasonLeft     LeaveReason = "left"
	ReasonInactive LeaveReason = "inactive"
	ReasonTimeout  LeaveReason = "timeout"
)
