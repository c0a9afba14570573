package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Duration
	n     int
	err   error
	block chan struct{}
}

func (f *fakeExpirer) ExpireStale(_ context.Context, ttl time.Duration, _ time.Time) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ttl)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.n, f.err
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(&fakeExpirer{}, time.Hour, "every now and then", logger.NewNop())
	require.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	exp := &fakeExpirer{n: 3}
	s, err := New(exp, 72*time.Hour, "@every 1h", logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, s.RunOnce(context.Background()))
	assert.Equal(t, []time.Duration{72 * time.Hour}, exp.calls)

	exp.err = errors.New("db down")
	exp.n = 0
	assert.Equal(t, 0, s.RunOnce(context.Background()))
	assert.Equal(t, 2, exp.count())
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	exp := &fakeExpirer{block: make(chan struct{})}
	s, err := New(exp, time.Hour, "@every 1h", logger.NewNop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return exp.count() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, s.RunOnce(context.Background()))
	assert.Equal(t, 1, exp.count())

	close(exp.block)
	<-done
}

func TestScheduledRun(t *testing.T) {
	exp := &fakeExpirer{}
	s, err := New(exp, time.Hour, "@every 1s", logger.NewNop())
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return exp.count() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
