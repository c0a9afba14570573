package client

import (
	"context"
	"sync"
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

const (
	MinPollInterval = 3 * time.Second
	MaxPollInterval = 5 * time.Second
)

// ClampPollInterval keeps a chat refresh cadence within [MinPollInterval, MaxPollInterval].
func ClampPollInterval(d time.Duration) time.Duration {
	if d < MinPollInterval {
		return MinPollInterval
	}
	if d > MaxPollInterval {
		return MaxPollInterval
	}
	return d
}

// MessagePoller refreshes one chat session on a fixed cadence. Each refresh replaces
// the visible conversation with the full ordered list from the server.
type MessagePoller struct {
	c         *Client
	sessionID uint64
	viewer    workflow.SenderType
	interval  time.Duration
	onUpdate  func([]api.Message)
	onError   func(error)

	mu       sync.Mutex
	messages []api.Message

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// PollMessages starts polling sessionID until ctx is cancelled or Stop is called.
// onError may be nil.
func (c *Client) PollMessages(ctx context.Context, sessionID uint64, viewer workflow.SenderType, interval time.Duration, onUpdate func([]api.Message), onError func(error)) *MessagePoller {
	return c.startPoller(ctx, sessionID, viewer, ClampPollInterval(interval), onUpdate, onError)
}

func (c *Client) startPoller(ctx context.Context, sessionID uint64, viewer workflow.SenderType, interval time.Duration, onUpdate func([]api.Message), onError func(error)) *MessagePoller {
	ctx, cancel := context.WithCancel(ctx)
	p := &MessagePoller{
		c:         c,
		sessionID: sessionID,
		viewer:    viewer,
		interval:  interval,
		onUpdate:  onUpdate,
		onError:   onError,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

func (p *MessagePoller) run(ctx context.Context) {
	defer close(p.done)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.refresh(ctx)
		}
	}
}

func (p *MessagePoller) refresh(ctx context.Context) {
	msgs, err := p.c.FetchMessages(ctx, p.sessionID, p.viewer)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	p.mu.Lock()
	p.messages = msgs
	p.mu.Unlock()
	if p.onUpdate != nil {
		p.onUpdate(msgs)
	}
}

// Messages is the last list received.
func (p *MessagePoller) Messages() []api.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Stop cancels polling and waits for the loop to exit. Safe to call more than once.
func (p *MessagePoller) Stop() {
	p.stopOnce.Do(p.cancel)
	<-p.done
}

// Done is closed once the loop has exited.
func (p *MessagePoller) Done() <-chan struct{} {
	return p.done
}
