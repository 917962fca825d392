package engine

import (
	crand "crypto/rand"
	"math/rand/v2"
	"time"
)

type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseReveal    Phase = "roleReveal"
	PhaseTurns     Phase = "turns"
	PhaseVoting    Phase = "voting"
	PhaseResolved  Phase = "resolved"
)

type Role string

const (
	RoleCrew     Role = "crew"
	RoleImposter Role = "imposter"
)

type Player struct {
	ID         string
	Name       string
	Role       Role
	IsBot      bool
	Local      bool // seat on the host's device, no connection of its own
	Connected  bool
	LastActive time.Time
	JoinedAt   time.Time
}

// human reports whether the session is backed by a client connection.
func (p *Player) human() bool { return !p.IsBot && !p.Local }

type Settings struct {
	MaxPlayers        int
	Countdown         time.Duration
	Discussion        time.Duration // 0 leaves opening the vote to the host
	TurnDuration      time.Duration
	TickInterval      time.Duration
	VotingTimeout     time.Duration
	BotVotingTimeout  time.Duration
	BotVoteDelay      time.Duration
	GracePeriod       time.Duration
	InactivityTimeout time.Duration // 0 disables the sweep
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:        8,
		Countdown:         5 * time.Second,
		Discussion:        90 * time.Second,
		TurnDuration:      20 * time.Second,
		TickInterval:      time.Second,
		VotingTimeout:     60 * time.Second,
		BotVotingTimeout:  20 * time.Second,
		BotVoteDelay:      2 * time.Second,
		GracePeriod:       20 * time.Second,
		InactivityTimeout: 20 * time.Second,
	}
}

// Game is the complete state of one room. It is not safe for concurrent use;
// the room actor is its only owner.
type Game struct {
	Code        string
	Mode        GameMode
	Rules       ModeRules
	MaxPlayers  int
	HostID      string
	Started     bool
	RoundActive bool
	Phase       Phase
	Round       int
	Pair        WordPair
	ImposterID  string
	TurnIndex   int

	order     []string
	players   map[string]*Player
	votes     map[string]string
	ballots   []Ballot
	turnOrder []string
	turnLeft  time.Duration
	reveal    []SingleRole
	revealAt  int
	seatSeq   int
	botSeq    int
	closed    bool

	// set while the host has not yet been told of a handover
	hostPending bool

	settings Settings
	pairs    []WordPair
	rng      *rand.Rand
	bot      BotStrategy
	now      func() time.Time
}

type Option func(*Game)

func WithRand(r *rand.Rand) Option { return func(g *Game) { g.rng = r } }

func WithBot(b BotStrategy) Option { return func(g *Game) { g.bot = b } }

func WithClock(now func() time.Time) Option { return func(g *Game) { g.now = now } }

func WithWordPairs(pairs []WordPair) Option { return func(g *Game) { g.pairs = pairs } }

func NewGame(code string, mode GameMode, settings Settings, opts ...Option) (*Game, error) {
	rules, ok := RulesFor(mode)
	if !ok {
		return nil, ErrWrongMode
	}
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = DefaultSettings().MaxPlayers
	}
	g := &Game{
		Code:       code,
		Mode:       mode,
		Rules:      rules,
		MaxPlayers: settings.MaxPlayers,
		Phase:      PhaseLobby,
		players:    make(map[string]*Player),
		votes:      make(map[string]string),
		settings:   settings,
		pairs:      WordPairs,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = newRand()
	}
	if g.bot == nil {
		g.bot = NewTemplateBot(g.rng)
	}
	return g, nil
}

func newRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// Apply validates cmd against the current state and, if legal, mutates the
// game and returns the resulting events. A rejected command leaves the state
// untouched.
func (g *Game) Apply(cmd Command) ([]Event, error) {
	if g.closed {
		return nil, ErrRoomNotFound
	}
	g.touch(SenderOf(cmd))

	switch c := cmd.(type) {
	case Create:
		return g.create(c)
	case Join:
		return g.join(c)
	case Leave:
		if _, ok := g.players[c.ConnID]; !ok {
			return nil, ErrNotInRoom
		}
		return g.remove(c.ConnID, ReasonLeft), nil
	case Disconnect:
		return g.disconnect(c), nil
	case Heartbeat:
		if _, ok := g.players[c.ConnID]; !ok {
			return nil, ErrNotInRoom
		}
		return nil, nil
	case StartGame:
		return g.startGame(c)
	case StartGameSingle:
		return g.startGameSingle(c)
	case NextRound:
		return g.nextRound(c)
	case StartVoting:
		return g.startVoting(c)
	case SubmitHint:
		return g.submitHint(c)
	case CastVote:
		return g.castVote(c)
	case NextPlayer:
		return g.nextPlayer(c)
	case GetMyRole:
		return g.getMyRole(c)
	case Sweep:
		return g.sweep(c.At), nil
	case TimerFired:
		return g.fire(c.Timer), nil
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (g *Game) touch(id string) {
	if p, ok := g.players[id]; ok && p.human() {
		p.LastActive = g.now()
	}
}

func (g *Game) fire(key TimerKey) []Event {
	switch key.Kind {
	case TimerCountdown:
		if g.Phase == PhaseCountdown {
			return g.revealRoles()
		}
	case TimerDiscussion:
		if g.Phase == PhaseReveal && !g.Rules.SingleDevice {
			return g.enterVoting()
		}
	case TimerTurn:
		return g.onTurnTick()
	case TimerVoting:
		if g.Phase == PhaseVoting {
			return g.resolve()
		}
	case TimerBotVote:
		return g.botVote(key.Subject)
	case TimerGrace:
		if p, ok := g.players[key.Subject]; ok && !p.Connected && p.human() {
			return g.remove(key.Subject, ReasonTimeout)
		}
	}
	return nil
}

// Snapshot is a copy of the game state for inspection outside the actor.
type Snapshot struct {
	Code        string
	Mode        GameMode
	Phase       Phase
	HostID      string
	Started     bool
	RoundActive bool
	Round       int
	MaxPlayers  int
	Pair        WordPair
	ImposterID  string
	TurnIndex   int
	TurnOrder   []string
	Players     []Player
	Votes       map[string]string
	Closed      bool
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Code:        g.Code,
		Mode:        g.Mode,
		Phase:       g.Phase,
		HostID:      g.HostID,
		Started:     g.Started,
		RoundActive: g.RoundActive,
		Round:       g.Round,
		MaxPlayers:  g.MaxPlayers,
		Pair:        g.Pair,
		ImposterID:  g.ImposterID,
		TurnIndex:   g.TurnIndex,
		TurnOrder:   append([]string(nil), g.turnOrder...),
		Players:     make([]Player, 0, len(g.order)),
		Votes:       make(map[string]string, len(g.votes)),
		Closed:      g.closed,
	}
	for _, id := range g.order {
		s.Players = append(s.Players, *g.players[id])
	}
	for k, v := range g.votes {
		s.Votes[k] = v
	}
	return s
}

// Player looks up a session by id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerByName looks up a session by display name.
func (s Snapshot) PlayerByName(name string) (Player, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}
