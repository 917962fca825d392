package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/room"
	"github.com/DoyleJ11/imposter-backend/pkg/types"
)

type Options struct {
	OutboxSize     int
	ReadTimeout    time.Duration // a silent client is dropped after this
	WriteTimeout   time.Duration
	CommandRate    rate.Limit
	CommandBurst   int
	OriginPatterns []string
}

func DefaultOptions() Options {
	return Options{
		OutboxSize:   64,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Second,
		CommandRate:  10,
		CommandBurst: 20,
	}
}

// Rooms is the part of the registry the gateway needs.
type Rooms interface {
	Create(ctx context.Context, mode engine.GameMode, creator room.Creator) hub.CreateResult
	Get(ctx context.Context, code string) *room.Room
}

func Handler(h Rooms, opts Options, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("ws")
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = DefaultOptions().OutboxSize
	}
	if opts.CommandRate <= 0 {
		opts.CommandRate = rate.Inf
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			id:      uuid.NewString(),
			out:     make(chan types.ServerMessage, opts.OutboxSize),
			ctx:     ctx,
			cancel:  cancel,
			rooms:   h,
			limiter: rate.NewLimiter(opts.CommandRate, opts.CommandBurst),
		}
		c.log = log.With(zap.String("conn", c.id))
		c.log.Debug("connected", zap.String("remote", r.RemoteAddr))

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			c.writeLoop(conn, opts.WriteTimeout)
		}()

		c.push(types.Event(types.TypeHello, types.Hello{ConnID: c.id}))
		c.readLoop(conn, opts.ReadTimeout)

		// the room gets Disconnect, not Leave: the session keeps its grace period
		c.detach()
		cancel()
		<-writerDone
		c.log.Debug("disconnected")
	}
}

func (c *client) readLoop(conn *websocket.Conn, timeout time.Duration) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, timeout)
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if c.ctx.Err() == nil {
					c.log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.sendError(engine.ErrBadRequest)
			continue
		}
		if !c.limiter.Allow() {
			c.reject(cm, engine.ErrRateLimited)
			continue
		}
		c.dispatch(cm)
	}
}

func (c *client) writeLoop(conn *websocket.Conn, timeout time.Duration) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case m := <-c.out:
			payload, err := json.Marshal(m)
			if err != nil {
				c.log.Error("encode message", zap.String("type", m.Type), zap.Error(err))
				continue
			}
			ctx, cancel := context.WithTimeout(c.ctx, timeout)
			err = conn.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				c.cancel()
				return
			}
		}
	}
}
