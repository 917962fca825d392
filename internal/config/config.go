package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/ws"
)

// EnvPrefix is prepended to every flag name when read from the environment,
// so --grace-period becomes IMPOSTER_GRACE_PERIOD.
const EnvPrefix = "IMPOSTER"

type Config struct {
	Bind      string
	Port      int
	LogMode   string
	LogLevel  string
	PublicURL string

	MaxPlayers        int
	Countdown         time.Duration
	Discussion        time.Duration
	TurnDuration      time.Duration
	TickInterval      time.Duration
	VotingTimeout     time.Duration
	BotVotingTimeout  time.Duration
	BotVoteDelay      time.Duration
	GracePeriod       time.Duration
	InactivityTimeout time.Duration
	SweepInterval     time.Duration

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	OutboxSize     int
	CommandRate    float64
	CommandBurst   int
	OriginPatterns []string

	ConfigFile string
}

func Default() Config {
	s := engine.DefaultSettings()
	w := ws.DefaultOptions()
	return Config{
		Bind:              "0.0.0.0",
		Port:              8080,
		LogMode:           "prod",
		LogLevel:          "info",
		MaxPlayers:        s.MaxPlayers,
		Countdown:         s.Countdown,
		Discussion:        s.Discussion,
		TurnDuration:      s.TurnDuration,
		TickInterval:      s.TickInterval,
		VotingTimeout:     s.VotingTimeout,
		BotVotingTimeout:  s.BotVotingTimeout,
		BotVoteDelay:      s.BotVoteDelay,
		GracePeriod:       s.GracePeriod,
		InactivityTimeout: s.InactivityTimeout,
		SweepInterval:     5 * time.Second,
		ReadTimeout:       w.ReadTimeout,
		WriteTimeout:      w.WriteTimeout,
		OutboxSize:        w.OutboxSize,
		CommandRate:       float64(w.CommandRate),
		CommandBurst:      w.CommandBurst,
	}
}

// BindFlags registers every setting on fs, using c's current values as defaults.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", c.Bind, "address to bind to (env: IMPOSTER_BIND)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to listen on (env: IMPOSTER_PORT)")
	fs.StringVar(&c.LogMode, "log-mode", c.LogMode, "log format, dev or prod (env: IMPOSTER_LOG_MODE)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "minimum log level (env: IMPOSTER_LOG_LEVEL)")
	fs.StringVar(&c.PublicURL, "public-url", c.PublicURL, "base URL encoded into join QR codes (env: IMPOSTER_PUBLIC_URL)")

	fs.IntVar(&c.MaxPlayers, "max-players", c.MaxPlayers, "seats per room (env: IMPOSTER_MAX_PLAYERS)")
	fs.DurationVar(&c.Countdown, "countdown", c.Countdown, "countdown before roles are revealed (env: IMPOSTER_COUNTDOWN)")
	fs.DurationVar(&c.Discussion, "discussion", c.Discussion, "discussion time before voting opens, 0 leaves it to the host (env: IMPOSTER_DISCUSSION)")
	fs.DurationVar(&c.TurnDuration, "turn-duration", c.TurnDuration, "length of one hint turn in bot mode (env: IMPOSTER_TURN_DURATION)")
	fs.DurationVar(&c.TickInterval, "tick-interval", c.TickInterval, "interval between timer updates (env: IMPOSTER_TICK_INTERVAL)")
	fs.DurationVar(&c.VotingTimeout, "voting-timeout", c.VotingTimeout, "time before an open vote is resolved (env: IMPOSTER_VOTING_TIMEOUT)")
	fs.DurationVar(&c.BotVotingTimeout, "bot-voting-timeout", c.BotVotingTimeout, "voting timeout in rooms with bots (env: IMPOSTER_BOT_VOTING_TIMEOUT)")
	fs.DurationVar(&c.BotVoteDelay, "bot-vote-delay", c.BotVoteDelay, "delay between bot ballots (env: IMPOSTER_BOT_VOTE_DELAY)")
	fs.DurationVar(&c.GracePeriod, "grace-period", c.GracePeriod, "time a dropped player may rejoin (env: IMPOSTER_GRACE_PERIOD)")
	fs.DurationVar(&c.InactivityTimeout, "inactivity-timeout", c.InactivityTimeout, "idle time before a player is removed, 0 disables (env: IMPOSTER_INACTIVITY_TIMEOUT)")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "interval of the inactivity sweep (env: IMPOSTER_SWEEP_INTERVAL)")

	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "websocket read deadline (env: IMPOSTER_READ_TIMEOUT)")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "websocket write deadline (env: IMPOSTER_WRITE_TIMEOUT)")
	fs.IntVar(&c.OutboxSize, "outbox-size", c.OutboxSize, "queued messages per connection before it is dropped (env: IMPOSTER_OUTBOX_SIZE)")
	fs.Float64Var(&c.CommandRate, "command-rate", c.CommandRate, "commands per second per connection, 0 is unlimited (env: IMPOSTER_COMMAND_RATE)")
	fs.IntVar(&c.CommandBurst, "command-burst", c.CommandBurst, "command burst per connection (env: IMPOSTER_COMMAND_BURST)")
	fs.StringSliceVar(&c.OriginPatterns, "origin", c.OriginPatterns, "extra allowed websocket origins (env: IMPOSTER_ORIGIN)")

	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "optional config file (env: IMPOSTER_CONFIG)")
}

// Load fills every flag that was not given on the command line from the
// environment or, if one is named, a config file. Command-line values win.
func Load(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	file, _ := fs.GetString("config")
	if !fs.Changed("config") {
		file = v.GetString("config")
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, flagValue(v.Get(f.Name))); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func flagValue(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(x)
	}
}

// LoadDotEnv reads a .env file into the process environment. A missing file
// is not an error; variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid log mode %q (must be dev or prod)", c.LogMode)
	}
	if c.MaxPlayers < 3 {
		return fmt.Errorf("max players must be at least 3: %d", c.MaxPlayers)
	}
	if c.TickInterval <= 0 {
		return errors.New("tick interval must be positive")
	}
	if c.TurnDuration <= 0 || c.VotingTimeout <= 0 || c.BotVotingTimeout <= 0 {
		return errors.New("turn and voting timeouts must be positive")
	}
	if c.Countdown < 0 || c.Discussion < 0 || c.BotVoteDelay < 0 || c.GracePeriod < 0 || c.InactivityTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("read and write timeouts must be positive")
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("outbox size must be at least 1: %d", c.OutboxSize)
	}
	if c.CommandRate < 0 || c.CommandBurst < 1 {
		return errors.New("command rate must not be negative and burst must be at least 1")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid public url %q", c.PublicURL)
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c *Config) Engine() engine.Settings {
	return engine.Settings{
		MaxPlayers:        c.MaxPlayers,
		Countdown:         c.Countdown,
		Discussion:        c.Discussion,
		TurnDuration:      c.TurnDuration,
		TickInterval:      c.TickInterval,
		VotingTimeout:     c.VotingTimeout,
		BotVotingTimeout:  c.BotVotingTimeout,
		BotVoteDelay:      c.BotVoteDelay,
		GracePeriod:       c.GracePeriod,
		InactivityTimeout: c.InactivityTimeout,
	}
}

func (c *Config) WS() ws.Options {
	limit := rate.Limit(c.CommandRate)
	if c.CommandRate == 0 {
		limit = rate.Inf
	}
	return ws.Options{
		OutboxSize:     c.OutboxSize,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		CommandRate:    limit,
		CommandBurst:   c.CommandBurst,
		OriginPatterns: c.OriginPatterns,
	}
}
