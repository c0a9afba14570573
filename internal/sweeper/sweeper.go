// Package sweeper expires pending service requests nobody answered in time.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Expirer is the slice of the request service the sweeper drives.
type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration, now time.Time) (int, error)
}

type Sweeper struct {
	expirer Expirer
	ttl     time.Duration
	log     logger.ILogger
	cron    *cron.Cron
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

// New schedules the sweep on schedule, any robfig/cron expression ("@every 10m", "*/5 * * * *").
func New(expirer Expirer, ttl time.Duration, schedule string, log logger.ILogger) (*Sweeper, error) {
	s := &Sweeper{
		expirer: expirer,
		ttl:     ttl,
		log:     log,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.log.Info("sweeper started", logger.Duration("ttl", s.ttl))
	s.cron.Start()
}

// Stop waits for a sweep in progress to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single sweep. Overlapping calls are skipped.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := s.now()
	n, err := s.expirer.ExpireStale(ctx, s.ttl, start)
	metrics.RecordSweep(n, err == nil)
	if err != nil {
		s.log.Error("sweep failed", logger.Int("expired", n), logger.Error(err))
		return n
	}
	if n > 0 {
		s.log.Info("stale requests expired", logger.Int("expired", n), logger.Duration("took", time.Since(start)))
	}
	return n
}
