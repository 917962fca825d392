package room

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
)

// Sink receives the messages addressed to one connection. Deliver must not
// block; returning false means the message was dropped.
type Sink interface {
	Deliver(msg engine.Message) bool
}

type Msg interface{ isRoomMsg() }

type Join struct {
	ConnID string
	Name   string
	Sink   Sink
	Reply  chan JoinResult // buffered, 1
}

type JoinResult struct {
	Name     string
	Rejoined bool
	Err      error
}

type FromClient struct {
	Cmd engine.Command
}

// Disconnect reports a lost transport. The session enters its grace period.
type Disconnect struct{ ConnID string }

type Sweep struct{ At time.Time }

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

type timerFired struct {
	key engine.TimerKey
	gen uint64
}

func (Join) isRoomMsg()       {}
func (FromClient) isRoomMsg() {}
func (Disconnect) isRoomMsg() {}
func (Sweep) isRoomMsg()      {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}
func (timerFired) isRoomMsg() {}

type View struct {
	Game       engine.Snapshot
	NumClients int
	Timers     []engine.TimerKey
}

// Creator is the connection that opens the room and becomes its host.
type Creator struct {
	ConnID string
	Name   string
	Seats  []string
	Sink   Sink
}

type Options struct {
	Code     string
	Mode     engine.GameMode
	Settings engine.Settings
	Logger   *zap.Logger
	Rand     *rand.Rand
	Bot      engine.BotStrategy
	// OnClose runs on the room goroutine once the room has shut down.
	OnClose func(code string, r *Room)
}

type armedTimer struct {
	t   *time.Timer
	gen uint64
}

type Room struct {
	code    string
	inbox   chan Msg
	game    *engine.Game
	sinks   map[string]Sink
	timers  map[engine.TimerKey]armedTimer
	gen     uint64
	closing bool
	log     *zap.Logger
	onClose func(string, *Room)
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds the game, seats the creator and starts the room goroutine. It
// returns the creator's assigned display name.
func New(parent context.Context, opts Options, creator Creator) (*Room, string, error) {
	var gameOpts []engine.Option
	if opts.Rand != nil {
		gameOpts = append(gameOpts, engine.WithRand(opts.Rand))
	}
	if opts.Bot != nil {
		gameOpts = append(gameOpts, engine.WithBot(opts.Bot))
	}
	g, err := engine.NewGame(opts.Code, opts.Mode, opts.Settings, gameOpts...)
	if err != nil {
		return nil, "", err
	}
	events, err := g.Apply(engine.Create{ConnID: creator.ConnID, Name: creator.Name, Seats: creator.Seats})
	if err != nil {
		return nil, "", err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:    opts.Code,
		inbox:   make(chan Msg, 64),
		game:    g,
		sinks:   map[string]Sink{creator.ConnID: creator.Sink},
		timers:  make(map[engine.TimerKey]armedTimer),
		log:     logger.With(zap.String("room", opts.Code)),
		onClose: opts.OnClose,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	joined := r.dispatch(events)
	r.log.Info("room created", zap.String("mode", string(opts.Mode)), zap.String("host", creator.ConnID))

	go r.loop()
	return r, joined.Name, nil
}

func (r *Room) Code() string { return r.code }

// Done is closed once the room goroutine has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Close stops the room without waiting for it.
func (r *Room) Close() { r.cancel() }

// Post queues m for the room. It reports false if the room is gone.
func (r *Room) Post(m Msg) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- m:
		return true
	case <-r.done:
		return false
	}
}

// Join seats a connection, or hands it a session in its grace period.
func (r *Room) Join(ctx context.Context, connID, name string, sink Sink) JoinResult {
	reply := make(chan JoinResult, 1)
	if !r.Post(Join{ConnID: connID, Name: name, Sink: sink, Reply: reply}) {
		return JoinResult{Err: engine.ErrRoomNotFound}
	}
	select {
	case res := <-reply:
		return res
	case <-r.done:
		select {
		case res := <-reply:
			return res
		default:
			return JoinResult{Err: engine.ErrRoomNotFound}
		}
	case <-ctx.Done():
		return JoinResult{Err: ctx.Err()}
	}
}

// State returns a copy of the room state, false if the room is gone.
func (r *Room) State(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !r.Post(GetState{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-r.done:
		return View{}, false
	case <-ctx.Done():
		return View{}, false
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			r.handle(m)
			if r.closing {
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		events, err := r.game.Apply(engine.Join{ConnID: msg.ConnID, Name: msg.Name})
		if err != nil {
			msg.Reply <- JoinResult{Err: err}
			break
		}
		// register first so the newcomer sees the lobbyUpdate
		r.sinks[msg.ConnID] = msg.Sink
		joined := r.dispatch(events)
		if joined.Rejoined {
			r.log.Info("player rejoined", zap.String("conn", msg.ConnID), zap.String("previous", joined.PreviousID))
		}
		msg.Reply <- JoinResult{Name: joined.Name, Rejoined: joined.Rejoined}

	case FromClient:
		r.apply(msg.Cmd)

	case Disconnect:
		delete(r.sinks, msg.ConnID)
		r.apply(engine.Disconnect{ConnID: msg.ConnID})

	case Sweep:
		r.apply(engine.Sweep{At: msg.At})

	case timerFired:
		at, ok := r.timers[msg.key]
		if !ok || at.gen != msg.gen {
			break // cancelled or re-armed since
		}
		delete(r.timers, msg.key)
		r.apply(engine.TimerFired{Timer: msg.key})

	case GetState:
		msg.Reply <- r.view()

	case Shutdown:
		r.closing = true
	}
}

func (r *Room) apply(cmd engine.Command) {
	events, err := r.game.Apply(cmd)
	if err != nil {
		sender := engine.SenderOf(cmd)
		r.log.Debug("command rejected", zap.String("conn", sender), zap.Error(err))
		if s, ok := r.sinks[sender]; ok {
			r.deliver(sender, s, engine.ErrorMessage(err))
		}
		return
	}
	r.dispatch(events)
}

// dispatch carries out engine events in order and returns the last Joined.
func (r *Room) dispatch(events []engine.Event) engine.Joined {
	var joined engine.Joined
	for _, ev := range events {
		switch e := ev.(type) {
		case engine.Broadcast:
			for id, s := range r.sinks {
				r.deliver(id, s, e.Msg)
			}
		case engine.Direct:
			if s, ok := r.sinks[e.To]; ok {
				r.deliver(e.To, s, e.Msg)
			}
		case engine.ArmTimer:
			r.arm(e.Timer, e.After)
		case engine.CancelTimer:
			r.disarm(e.Timer)
		case engine.Joined:
			joined = e
		case engine.Removed:
			delete(r.sinks, e.ID)
			r.log.Info("player removed", zap.String("conn", e.ID), zap.String("reason", string(e.Reason)))
		case engine.Closed:
			r.closing = true
		}
	}
	return joined
}

func (r *Room) deliver(id string, s Sink, msg engine.Message) {
	if !s.Deliver(msg) {
		r.log.Warn("dropped message", zap.String("conn", id), zap.String("type", msg.Name()))
	}
}

func (r *Room) arm(key engine.TimerKey, after time.Duration) {
	r.disarm(key)
	r.gen++
	gen := r.gen
	t := time.AfterFunc(after, func() {
		r.Post(timerFired{key: key, gen: gen})
	})
	r.timers[key] = armedTimer{t: t, gen: gen}
}

func (r *Room) disarm(key engine.TimerKey) {
	if at, ok := r.timers[key]; ok {
		at.t.Stop()
		delete(r.timers, key)
	}
}

func (r *Room) view() View {
	v := View{
		Game:       r.game.Snapshot(),
		NumClients: len(r.sinks),
		Timers:     make([]engine.TimerKey, 0, len(r.timers)),
	}
	for k := range r.timers {
		v.Timers = append(v.Timers, k)
	}
	slices.SortFunc(v.Timers, func(a, b engine.TimerKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return v
}

func (r *Room) shutdown() {
	for k, at := range r.timers {
		at.t.Stop()
		delete(r.timers, k)
	}
	clear(r.sinks)
	r.cancel()
	r.log.Info("room closed")
	close(r.done)
	if r.onClose != nil {
		r.onClose(r.code, r)
	}
}
