package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type expiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// PurgeScheduler periodically removes expired events.
type PurgeScheduler struct {
	cron    *cron.Cron
	purger  expiredPurger
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewPurgeScheduler registers the purge job on schedule, a standard cron
// expression or descriptor such as "@every 1h".
func NewPurgeScheduler(schedule string, purger expiredPurger, logger *zap.Logger) (*PurgeScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PurgeScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		purger:  purger,
		logger:  logger,
		timeout: time.Minute,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce purges expired events immediately.
func (s *PurgeScheduler) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("purge expired events failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired events purged", zap.Int64("count", n))
	}
	return n, nil
}

// Start runs the scheduler in the background.
func (s *PurgeScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running purge to finish or ctx to end.
func (s *PurgeScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
