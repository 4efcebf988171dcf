package session

import (
	"context"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
)

// SweeperOptions configures a Sweeper.
type SweeperOptions struct {
	// Interval between sweeps. Defaults to one hour.
	Interval time.Duration
	// Logger receives sweep results. Defaults to a no-op.
	Logger logging.Logger
}

// Sweeper periodically removes expired sessions from a store so idle
// conversations do not hold memory until someone happens to read them.
type Sweeper struct {
	store    core.SessionStore
	interval time.Duration
	logger   logging.Logger
}

// NewSweeper returns a sweeper over store.
func NewSweeper(store core.SessionStore, optFns ...func(o *SweeperOptions)) *Sweeper {
	o := SweeperOptions{
		Interval: time.Hour,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return &Sweeper{store: store, interval: o.Interval, logger: o.Logger}
}

// Run sweeps on every tick until ctx is cancelled. Store errors are
// logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one pass over every known user.
func (s *Sweeper) sweep() {
	removed := 0
	for _, userID := range s.store.UserIDs() {
		n, err := s.store.CleanupExpiredSessions(userID)
		if err != nil {
			s.logger.Error("session cleanup failed", "user_id", userID, "error", err)
			continue
		}
		removed += n
	}
	if removed > 0 {
		s.logger.Info("sweep complete", "removed", removed)
	}
}
