package engine

import "time"

// ContainsMessage reports whether events carry a message with the given name.
func ContainsMessage(events []Event, name string) bool {
	return len(Messages(events, name)) > 0
}

// Messages returns every broadcast or direct message with the given name.
func Messages(events []Event, name string) []Message {
	var out []Message
	for _, ev := range events {
		switch e := ev.(type) {
		case Broadcast:
			if e.Msg.Name() == name {
				out = append(out, e.Msg)
			}
		case Direct:
			if e.Msg.Name() == name {
				out = append(out, e.Msg)
			}
		}
	}
	return out
}

func (g *Game) lobbyUpdate() Event {
	return Broadcast{Msg: LobbyUpdate{
		Code:       g.Code,
		Players:    g.playerViews(),
		GameMode:   g.Mode,
		MaxPlayers: g.MaxPlayers,
		HostID:     g.HostID,
		Started:    g.Started,
		Phase:      g.Phase,
	}}
}

func (g *Game) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]
		views = append(views, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			IsBot:     p.IsBot,
			IsHost:    p.ID == g.HostID,
			Connected: p.Connected || !p.human(),
		})
	}
	return views
}

// cancelRoundTimers cancels every timer tied to the current round.
func (g *Game) cancelRoundTimers() []Event {
	events := []Event{
		CancelTimer{Timer: TimerKey{Kind: TimerCountdown}},
		CancelTimer{Timer: TimerKey{Kind: TimerDiscussion}},
		CancelTimer{Timer: TimerKey{Kind: TimerTurn}},
		CancelTimer{Timer: TimerKey{Kind: TimerVoting}},
	}
	for _, id := range g.order {
		if g.players[id].IsBot {
			events = append(events, CancelTimer{Timer: TimerKey{Kind: TimerBotVote, Subject: id}})
		}
	}
	return events
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
