package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/field-presence-service/pkg/common"
)

// Sweeper periodically moves silent employees offline. It catches the cases
// where a disconnect was never observed.
type Sweeper struct {
	store    PresenceStore
	presence *PresenceMachine
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSweeper(store PresenceStore, presence *PresenceMachine, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		presence: presence,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   common.GetCategoryLogger(common.LoggerNameTracker, common.LoggerCategorySweep),
	}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper started", zap.Duration("interval", s.interval), zap.Duration("timeout", s.presence.Timeout()))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce runs one pass and returns how many employees went offline.
// Each employee is swept under its own lock; cancellation is only checked
// between employees.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.presence.Timeout())

	ids, err := s.store.ListStaleOnline(ctx, cutoff)
	if err != nil {
		return 0, &PersistenceError{Op: "list stale presence", Err: err}
	}

	swept := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		changed, err := s.presence.SweepTimeout(ctx, id)
		if err != nil {
			s.logger.Error("Failed to sweep employee", zap.String("employee_id", id), zap.Error(err))
			continue
		}
		if changed {
			swept++
		}
	}

	if swept > 0 {
		s.logger.Info("Marked inactive employees offline", zap.Int("count", swept), zap.Int("candidates", len(ids)))
	}
	return swept, nil
}
