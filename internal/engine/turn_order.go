package engine

import (
	"slices"
	"time"
)

// Turns run in join order over the players present when the phase begins.
func (g *Game) enterTurns() []Event {
	g.Phase = PhaseTurns
	g.turnOrder = slices.Clone(g.order)
	g.TurnIndex = 0
	return g.beginTurn()
}

func (g *Game) currentTurn() string {
	if g.TurnIndex < 0 || g.TurnIndex >= len(g.turnOrder) {
		return ""
	}
	return g.turnOrder[g.TurnIndex]
}

func (g *Game) beginTurn() []Event {
	if g.TurnIndex >= len(g.turnOrder) {
		return g.enterVoting()
	}
	id := g.turnOrder[g.TurnIndex]
	g.turnLeft = g.settings.TurnDuration
	return []Event{
		Broadcast{Msg: PlayerTurn{Player: g.players[id].Name, PlayerID: id, TimeLeft: ceilSeconds(g.turnLeft)}},
		ArmTimer{Timer: TimerKey{Kind: TimerTurn}, After: g.tickStep()},
	}
}

func (g *Game) tickStep() time.Duration {
	step := g.settings.TickInterval
	if step <= 0 || step > g.turnLeft {
		step = g.turnLeft
	}
	return step
}

func (g *Game) onTurnTick() []Event {
	if g.Phase != PhaseTurns {
		return nil
	}
	g.turnLeft -= g.tickStep()
	if g.turnLeft > 0 {
		return []Event{
			Broadcast{Msg: TimerUpdate{TimeLeft: ceilSeconds(g.turnLeft)}},
			ArmTimer{Timer: TimerKey{Kind: TimerTurn}, After: g.tickStep()},
		}
	}
	return g.endTurn()
}

// endTurn closes an expired turn. Bots speak when their time runs out.
func (g *Game) endTurn() []Event {
	var events []Event
	if p, ok := g.players[g.currentTurn()]; ok && p.IsBot {
		events = append(events, Broadcast{Msg: Hint{
			From:  p.Name,
			Text:  g.bot.Hint(p.Role, g.wordFor(p)),
			IsBot: true,
		}})
	}
	g.TurnIndex++
	return append(events, g.beginTurn()...)
}
