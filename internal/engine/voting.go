package engine

import "time"

func (g *Game) enterVoting() []Event {
	g.Phase = PhaseVoting
	g.votes = make(map[string]string)
	g.ballots = nil

	timeout := g.settings.VotingTimeout
	if g.Rules.BotFill {
		timeout = g.settings.BotVotingTimeout
	}
	events := []Event{
		Broadcast{Msg: VotingStarted{Players: g.playerViews()}},
		ArmTimer{Timer: TimerKey{Kind: TimerVoting}, After: timeout},
	}
	n := 0
	for _, id := range g.order {
		if g.players[id].IsBot {
			n++
			events = append(events, ArmTimer{
				Timer: TimerKey{Kind: TimerBotVote, Subject: id},
				After: g.settings.BotVoteDelay * time.Duration(n),
			})
		}
	}
	return events
}

func (g *Game) castVote(c CastVote) ([]Event, error) {
	voter, ok := g.players[c.ConnID]
	if !ok {
		return nil, ErrNotInRoom
	}
	if g.Phase != PhaseVoting {
		return nil, ErrWrongPhase
	}
	return g.recordVote(voter, c.TargetID)
}

func (g *Game) recordVote(voter *Player, targetID string) ([]Event, error) {
	if _, done := g.votes[voter.ID]; done {
		return nil, ErrAlreadyVoted
	}
	target, ok := g.players[targetID]
	if !ok || target.ID == voter.ID {
		return nil, ErrInvalidVote
	}
	g.votes[voter.ID] = target.ID
	g.ballots = append(g.ballots, Ballot{VoterID: voter.ID, TargetID: target.ID})

	events := []Event{Broadcast{Msg: VoteCast{
		From:       voter.Name,
		FromID:     voter.ID,
		TargetName: target.Name,
		TargetID:   target.ID,
	}}}
	if len(g.votes) >= len(g.players) {
		events = append(events, g.resolve()...)
	}
	return events, nil
}

func (g *Game) botVote(id string) []Event {
	p, ok := g.players[id]
	if !ok || !p.IsBot || g.Phase != PhaseVoting {
		return nil
	}
	candidates := make([]string, 0, len(g.order)-1)
	for _, other := range g.order {
		if other != id {
			candidates = append(candidates, other)
		}
	}
	events, err := g.recordVote(p, g.bot.Vote(candidates, id, p.Role, g.ImposterID))
	if err != nil {
		return nil
	}
	return events
}

// dropBallots discards everything cast by or against id.
func (g *Game) dropBallots(id string) {
	delete(g.votes, id)
	for voter, target := range g.votes {
		if target == id {
			delete(g.votes, voter)
		}
	}
	kept := g.ballots[:0]
	for _, b := range g.ballots {
		if b.VoterID != id && b.TargetID != id {
			kept = append(kept, b)
		}
	}
	g.ballots = kept
}

func (g *Game) resolve() []Event {
	result := Tally(g.ballots)
	events := g.cancelRoundTimers()
	g.Phase = PhaseResolved
	g.RoundActive = false

	ended := GameEnded{
		ImposterEjected: result.Ejected != "" && result.Ejected == g.ImposterID,
		Votes:           make(map[string]int, len(result.Counts)),
	}
	for id, n := range result.Counts {
		if p, ok := g.players[id]; ok {
			ended.Votes[p.Name] = n
		}
	}
	if p, ok := g.players[result.Ejected]; ok {
		ended.EjectedPlayer = p.Name
	}
	if p, ok := g.players[g.ImposterID]; ok {
		ended.Imposter = p.Name
	}
	return append(events, Broadcast{Msg: ended})
}
