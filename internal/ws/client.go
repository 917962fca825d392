package ws

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/room"
	"github.com/DoyleJ11/imposter-backend/pkg/types"
)

// client is one websocket connection. The read loop sets its current room;
// the room goroutine may clear it through Deliver when it evicts the client.
type client struct {
	id      string
	out     chan types.ServerMessage
	ctx     context.Context
	cancel  context.CancelFunc
	rooms   Rooms
	limiter *rate.Limiter
	log     *zap.Logger

	mu   sync.Mutex
	room *room.Room
}

// Deliver implements room.Sink. A full outbox drops the connection.
func (c *client) Deliver(msg engine.Message) bool {
	if k, ok := msg.(engine.Kicked); ok {
		c.forget(k.Code)
	}
	return c.push(types.Event(msg.Name(), msg))
}

func (c *client) current() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *client) setRoom(r *room.Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// forget drops the current room if it is the one named by code.
func (c *client) forget(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != nil && c.room.Code() == code {
		c.room = nil
	}
}

func (c *client) push(m types.ServerMessage) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	select {
	case c.out <- m:
		return true
	default:
		c.log.Warn("outbox full, dropping client", zap.String("type", m.Type))
		c.cancel()
		return false
	}
}

func (c *client) dispatch(cm types.ClientMessage) {
	switch cm.Type {
	case types.CmdCreateRoom:
		c.createRoom(cm)
	case types.CmdJoinRoom:
		c.joinRoom(cm)
	case types.CmdLeaveGame:
		c.leaveCurrent()
	case types.CmdHeartbeat:
		if r := c.current(); r != nil {
			r.Post(room.FromClient{Cmd: engine.Heartbeat{ConnID: c.id}})
		}
	default:
		cmd, ok := toEngineCommand(c.id, cm)
		if !ok {
			c.sendError(engine.ErrUnsupportedCommand)
			return
		}
		r := c.roomFor(cm.Code)
		if r == nil {
			c.sendError(engine.ErrNotInRoom)
			return
		}
		if !r.Post(room.FromClient{Cmd: cmd}) {
			c.forget(r.Code())
			c.sendError(engine.ErrRoomNotFound)
		}
	}
}

func (c *client) createRoom(cm types.ClientMessage) {
	mode, err := engine.ParseMode(cm.GameMode)
	if err != nil {
		c.reject(cm, err)
		return
	}
	c.leaveCurrent()
	res := c.rooms.Create(c.ctx, mode, room.Creator{
		ConnID: c.id,
		Name:   cm.Name,
		Seats:  cm.PlayerNames,
		Sink:   c,
	})
	if res.Err != nil {
		c.log.Warn("create room failed", zap.Error(res.Err))
		c.reject(cm, res.Err)
		return
	}
	c.setRoom(res.Room)
	c.log.Info("room created", zap.String("room", res.Code), zap.String("mode", string(mode)))
	c.push(types.Ack(cm.ID, types.CreateAck{Code: res.Code, AssignedName: res.Name}))
}

func (c *client) joinRoom(cm types.ClientMessage) {
	code := hub.NormalizeCode(cm.Code)
	if cur := c.current(); cur != nil && cur.Code() != code {
		c.leaveCurrent()
	}
	r := c.rooms.Get(c.ctx, code)
	if r == nil {
		c.reject(cm, engine.ErrRoomNotFound)
		return
	}
	res := r.Join(c.ctx, c.id, cm.Name, c)
	if res.Err != nil {
		c.reject(cm, res.Err)
		return
	}
	c.setRoom(r)
	c.push(types.Ack(cm.ID, types.JoinAck{OK: true, Code: code, AssignedName: res.Name, Rejoined: res.Rejoined}))
}

// roomFor returns the current room if code is empty or names it.
func (c *client) roomFor(code string) *room.Room {
	r := c.current()
	if r == nil {
		return nil
	}
	if code != "" && hub.NormalizeCode(code) != r.Code() {
		return nil
	}
	return r
}

func (c *client) leaveCurrent() {
	r := c.current()
	if r == nil {
		return
	}
	r.Post(room.FromClient{Cmd: engine.Leave{ConnID: c.id}})
	c.setRoom(nil)
}

// detach hands the session to the room's disconnect handling.
func (c *client) detach() {
	r := c.current()
	if r == nil {
		return
	}
	r.Post(room.Disconnect{ConnID: c.id})
	c.setRoom(nil)
}

// reject answers a command: as an ack when it carried an id, else as errorMsg.
func (c *client) reject(cm types.ClientMessage, err error) {
	if cm.ID == "" {
		c.sendError(err)
		return
	}
	e := asError(err)
	c.push(types.Ack(cm.ID, types.ErrorAck{Error: e.Message, Code: e.Code}))
}

func (c *client) sendError(err error) {
	msg := engine.ErrorMessage(err)
	c.push(types.Event(msg.Name(), msg))
}

func asError(err error) *engine.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return engine.ErrRoomNotFound
	}
	return engine.AsError(err)
}

func toEngineCommand(connID string, m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.CmdStartGame:
		return engine.StartGame{ConnID: connID}, true
	case types.CmdStartGameSingle:
		return engine.StartGameSingle{ConnID: connID, Names: m.Names}, true
	case types.CmdNextRound:
		return engine.NextRound{ConnID: connID}, true
	case types.CmdStartVoting:
		return engine.StartVoting{ConnID: connID}, true
	case types.CmdSubmitHint:
		return engine.SubmitHint{ConnID: connID, Text: m.Text}, true
	case types.CmdVote:
		return engine.CastVote{ConnID: connID, TargetID: m.TargetID}, true
	case types.CmdNextPlayer:
		return engine.NextPlayer{ConnID: connID}, true
	case types.CmdGetMyRole:
		return engine.GetMyRole{ConnID: connID}, true
	default:
		return nil, false
	}
}
