package hub

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/room"
)

const maxCodeAttempts = 16

var ErrNoFreeCode = errors.New("no free room code")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Mode    engine.GameMode
	Creator room.Creator
	Reply   chan CreateResult
}

type CreateResult struct {
	Room *room.Room
	Code string
	Name string // creator's assigned display name
	Err  error
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom is posted by a room once it has shut down. Room guards against
// removing a newer room that reused the code.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type ListRooms struct {
	Reply chan []*room.Room
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	settings engine.Settings
	genCode  func() (string, error)
	log      *zap.Logger
	roomLog  *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	stopping chan struct{}
	done     chan struct{}
}

type Option func(*Hub)

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(h *Hub) { h.genCode = gen }
}

func NewHub(parent context.Context, settings engine.Settings, logger *zap.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		settings: settings,
		genCode:  GenerateCode,
		log:      logger.Named("hub"),
		roomLog:  logger.Named("room"),
		ctx:      ctx,
		cancel:   cancel,
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub goroutine has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeRooms()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.create(msg)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if cur, ok := h.rooms[msg.Code]; ok && cur == msg.Room {
					delete(h.rooms, msg.Code)
					h.log.Debug("room removed", zap.String("room", msg.Code), zap.Int("rooms", len(h.rooms)))
				}

			case ListRooms:
				out := make([]*room.Room, 0, len(h.rooms))
				for _, r := range h.rooms {
					out = append(out, r)
				}
				msg.Reply <- out

			case ShutdownHub:
				h.closeRooms()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateRoom) CreateResult {
	code, err := h.freeCode()
	if err != nil {
		return CreateResult{Err: err}
	}
	r, name, err := room.New(h.ctx, room.Options{
		Code:     code,
		Mode:     msg.Mode,
		Settings: h.settings,
		Logger:   h.roomLog,
		OnClose:  h.onRoomClosed,
	}, msg.Creator)
	if err != nil {
		return CreateResult{Err: err}
	}
	h.rooms[code] = r
	return CreateResult{Room: r, Code: code, Name: name}
}

func (h *Hub) freeCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		c, err := h.genCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := h.rooms[c]; !taken {
			return c, nil
		}
		h.log.Debug("collision on code, regenerating", zap.String("code", c))
	}
	return "", ErrNoFreeCode
}

// onRoomClosed runs on the room goroutine. It must not block on a stopping hub.
func (h *Hub) onRoomClosed(code string, r *room.Room) {
	select {
	case h.inbox <- RemoveRoom{Code: code, Room: r}:
	case <-h.stopping:
	}
}

// closeRooms stops every room and waits for each to exit.
func (h *Hub) closeRooms() {
	close(h.stopping)
	for _, r := range h.rooms {
		r.Close()
	}
	for _, r := range h.rooms {
		<-r.Done()
	}
	clear(h.rooms)
	h.log.Info("hub stopped")
}

func (h *Hub) send(ctx context.Context, m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-ctx.Done():
		return false
	case <-h.done:
		return false
	}
}

// Create opens a new room with a fresh code and seats the creator as host.
func (h *Hub) Create(ctx context.Context, mode engine.GameMode, creator room.Creator) CreateResult {
	reply := make(chan CreateResult, 1)
	if !h.send(ctx, CreateRoom{Mode: mode, Creator: creator, Reply: reply}) {
		return CreateResult{Err: errors.New("hub stopped")}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return CreateResult{Err: ctx.Err()}
	case <-h.done:
		return CreateResult{Err: errors.New("hub stopped")}
	}
}

// Get returns the room for code, or nil. Code is normalised first.
func (h *Hub) Get(ctx context.Context, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	if !h.send(ctx, GetRoom{Code: NormalizeCode(code), Reply: reply}) {
		return nil
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return nil
	case <-h.done:
		return nil
	}
}

// Rooms snapshots every live room.
func (h *Hub) Rooms(ctx context.Context) []*room.Room {
	reply := make(chan []*room.Room, 1)
	if !h.send(ctx, ListRooms{Reply: reply}) {
		return nil
	}
	select {
	case rs := <-reply:
		return rs
	case <-ctx.Done():
		return nil
	case <-h.done:
		return nil
	}
}

// Shutdown closes every room and stops the hub, waiting until it has exited.
func (h *Hub) Shutdown(ctx context.Context) error {
	if !h.send(ctx, ShutdownHub{}) {
		select {
		case <-h.done:
			return nil
		default:
			return ctx.Err()
		}
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown: %w", ctx.Err())
	}
}
