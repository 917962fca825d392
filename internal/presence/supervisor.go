package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/room"
)

// Registry lists the rooms to sweep.
type Registry interface {
	Rooms(ctx context.Context) []*room.Room
}

// Supervisor periodically asks every room to evict idle players. Grace
// periods are not handled here; each room arms those itself.
type Supervisor struct {
	registry Registry
	interval time.Duration
	log      *zap.Logger
}

func NewSupervisor(registry Registry, interval time.Duration, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{registry: registry, interval: interval, log: logger.Named("presence")}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables sweeping.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("inactivity sweep disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.SweepOnce(ctx, now)
		}
	}
}

// SweepOnce posts a sweep to each room and returns how many accepted it.
func (s *Supervisor) SweepOnce(ctx context.Context, now time.Time) int {
	rooms := s.registry.Rooms(ctx)
	n := 0
	for _, r := range rooms {
		if r.Post(room.Sweep{At: now}) {
			n++
		}
	}
	if n > 0 {
		s.log.Debug("sweep", zap.Int("rooms", n))
	}
	return n
}
