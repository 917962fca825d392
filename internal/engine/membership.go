package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

func (g *Game) create(c Create) ([]Event, error) {
	if len(g.order) > 0 {
		return nil, ErrWrongPhase
	}
	name := NormalizeName(c.Name)

	var seats []string
	if g.Rules.SingleDevice {
		for _, s := range c.Seats {
			if n, err := ValidateName(s); err == nil {
				seats = append(seats, n)
			}
		}
		if len(seats) > 0 {
			name, seats = seats[0], seats[1:]
		}
	}
	if 1+len(seats) > g.MaxPlayers {
		return nil, ErrRoomFull
	}

	host := g.addPlayer(c.ConnID, name, false, false)
	g.HostID = host.ID
	for _, s := range seats {
		g.addSeat(s)
	}
	return []Event{Joined{ConnID: c.ConnID, Name: host.Name}, g.lobbyUpdate()}, nil
}

func (g *Game) join(c Join) ([]Event, error) {
	// a seated connection keeps its own session, whatever name it asks for
	if p, ok := g.players[c.ConnID]; ok {
		return []Event{Joined{ConnID: c.ConnID, Name: p.Name}, g.lobbyUpdate()}, nil
	}
	name := NormalizeName(c.Name)
	if p := g.graceSession(name); p != nil {
		return g.rejoin(p, c.ConnID), nil
	}
	if g.Started {
		return nil, ErrGameAlreadyStarted
	}
	if len(g.order) >= g.MaxPlayers {
		return nil, ErrRoomFull
	}
	if !g.Rules.AcceptsJoins {
		return nil, ErrWrongMode
	}
	p := g.addPlayer(c.ConnID, name, false, false)
	return []Event{Joined{ConnID: c.ConnID, Name: p.Name}, g.lobbyUpdate()}, nil
}

// graceSession finds a disconnected session waiting to be taken over.
func (g *Game) graceSession(name string) *Player {
	for _, id := range g.order {
		p := g.players[id]
		if p.human() && !p.Connected && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (g *Game) rejoin(p *Player, connID string) []Event {
	oldID := p.ID
	events := []Event{CancelTimer{Timer: TimerKey{Kind: TimerGrace, Subject: oldID}}}
	g.rekey(oldID, connID)
	p.Connected = true
	p.LastActive = g.now()

	events = append(events,
		Joined{ConnID: connID, Name: p.Name, Rejoined: true, PreviousID: oldID},
		g.lobbyUpdate(),
	)
	if connID == g.HostID && g.hostPending {
		g.hostPending = false
		events = append(events, Direct{To: connID, Msg: YouAreHost{}})
	}
	switch {
	case g.Rules.SingleDevice && g.Phase == PhaseReveal && connID == g.HostID:
		events = append(events,
			Direct{To: connID, Msg: SingleRoles{Roles: g.reveal}},
			Direct{To: connID, Msg: g.singleNext()},
		)
	case g.RoundActive && !g.Rules.SingleDevice:
		events = append(events, Direct{To: connID, Msg: g.yourRole(p)})
	}
	return events
}

// rekey moves every reference to oldID over to newID.
func (g *Game) rekey(oldID, newID string) {
	p := g.players[oldID]
	delete(g.players, oldID)
	p.ID = newID
	g.players[newID] = p

	swap := func(s string) string {
		if s == oldID {
			return newID
		}
		return s
	}
	for i := range g.order {
		g.order[i] = swap(g.order[i])
	}
	for i := range g.turnOrder {
		g.turnOrder[i] = swap(g.turnOrder[i])
	}
	g.HostID = swap(g.HostID)
	g.ImposterID = swap(g.ImposterID)

	votes := make(map[string]string, len(g.votes))
	for voter, target := range g.votes {
		votes[swap(voter)] = swap(target)
	}
	g.votes = votes
	for i := range g.ballots {
		g.ballots[i].VoterID = swap(g.ballots[i].VoterID)
		g.ballots[i].TargetID = swap(g.ballots[i].TargetID)
	}
}

func (g *Game) disconnect(c Disconnect) []Event {
	p, ok := g.players[c.ConnID]
	if !ok || !p.human() || !p.Connected {
		return nil
	}
	if g.settings.GracePeriod <= 0 {
		return g.remove(c.ConnID, ReasonTimeout)
	}
	p.Connected = false
	return []Event{
		ArmTimer{Timer: TimerKey{Kind: TimerGrace, Subject: c.ConnID}, After: g.settings.GracePeriod},
		g.lobbyUpdate(),
	}
}

func (g *Game) sweep(at time.Time) []Event {
	if g.settings.InactivityTimeout <= 0 {
		return nil
	}
	cutoff := at.Add(-g.settings.InactivityTimeout)
	var stale []string
	for _, id := range g.order {
		p := g.players[id]
		if p.human() && p.Connected && p.LastActive.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	var events []Event
	for _, id := range stale {
		if g.closed {
			break
		}
		events = append(events, g.remove(id, ReasonInactive)...)
	}
	return events
}

// remove drops a session for good: explicit leave, eviction or grace expiry.
func (g *Game) remove(id string, reason LeaveReason) []Event {
	p := g.players[id]
	events := []Event{CancelTimer{Timer: TimerKey{Kind: TimerGrace, Subject: id}}}
	if reason != ReasonLeft && p.Connected {
		events = append(events, Direct{To: id, Msg: Kicked{Code: g.Code, Reason: string(reason)}})
	}

	wasHost := g.HostID == id
	wasImposter := g.ImposterID == id
	delete(g.players, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	events = append(events, Removed{ID: id, Reason: reason})

	if g.humanCount() == 0 {
		return append(events, g.close()...)
	}

	events = append(events, Broadcast{Msg: PlayerLeft{PlayerName: p.Name, Reason: string(reason)}})
	if wasHost {
		events = append(events, g.succeedHost()...)
	}
	events = append(events, g.afterRemoval(id, p.Name, wasImposter)...)
	return append(events, g.lobbyUpdate())
}

// succeedHost hands host to the oldest connected human, or failing that to the
// oldest one in a grace period, who is told on rejoin.
func (g *Game) succeedHost() []Event {
	g.HostID = ""
	g.hostPending = false
	for _, id := range g.order {
		if p := g.players[id]; p.human() && p.Connected {
			g.HostID = id
			return []Event{Direct{To: id, Msg: YouAreHost{}}}
		}
	}
	for _, id := range g.order {
		if g.players[id].human() {
			g.HostID = id
			g.hostPending = true
			return nil
		}
	}
	return nil
}

// afterRemoval repairs round state that referenced the removed player.
func (g *Game) afterRemoval(id, name string, wasImposter bool) []Event {
	if wasImposter {
		g.ImposterID = ""
		if g.RoundActive {
			events := g.cancelRoundTimers()
			g.RoundActive = false
			g.Phase = PhaseResolved
			return append(events, Broadcast{Msg: GameEnded{
				Imposter:     name,
				ImposterLeft: true,
				Votes:        map[string]int{},
			}})
		}
	}

	switch g.Phase {
	case PhaseTurns:
		idx := slices.Index(g.turnOrder, id)
		if idx < 0 {
			return nil
		}
		g.turnOrder = slices.Delete(g.turnOrder, idx, idx+1)
		switch {
		case idx < g.TurnIndex:
			g.TurnIndex--
		case idx == g.TurnIndex:
			events := []Event{CancelTimer{Timer: TimerKey{Kind: TimerTurn}}}
			return append(events, g.beginTurn()...)
		}
	case PhaseVoting:
		g.dropBallots(id)
		if len(g.votes) >= len(g.players) {
			return g.resolve()
		}
	}
	return nil
}

func (g *Game) close() []Event {
	events := g.cancelRoundTimers()
	g.closed = true
	g.RoundActive = false
	g.HostID = ""
	g.order = nil
	clear(g.players)
	return append(events, Closed{})
}

func (g *Game) addPlayer(id, name string, bot, local bool) *Player {
	now := g.now()
	p := &Player{
		ID:         id,
		Name:       UniqueName(name, g.nameTaken),
		Role:       RoleCrew,
		IsBot:      bot,
		Local:      local,
		Connected:  !bot && !local,
		LastActive: now,
		JoinedAt:   now,
	}
	g.players[id] = p
	g.order = append(g.order, id)
	return p
}

func (g *Game) addSeat(name string) *Player {
	g.seatSeq++
	return g.addPlayer(fmt.Sprintf("seat-%d", g.seatSeq), name, false, true)
}

func (g *Game) addBot() *Player {
	g.botSeq++
	name := botNames[(g.botSeq-1)%len(botNames)]
	return g.addPlayer(fmt.Sprintf("bot-%d", g.botSeq), name, true, false)
}

func (g *Game) nameTaken(name string) bool {
	for _, p := range g.players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (g *Game) humanCount() int {
	n := 0
	for _, p := range g.players {
		if p.human() {
			n++
		}
	}
	return n
}
