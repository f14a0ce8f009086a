package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the background queue cannot take another event
var ErrQueueFull = errors.New("event queue full")

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("event publisher closed")

const drainTimeout = 5 * time.Second

// AsyncPublisher queues events and publishes them from a single worker goroutine.
// Publish never waits on the wrapped publisher; a full queue drops the event.
type AsyncPublisher struct {
	next    Publisher
	queue   chan Event
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncPublisher starts the worker. Each event gets timeout to reach next.
func NewAsyncPublisher(next Publisher, size int, timeout time.Duration, logger zerolog.Logger) *AsyncPublisher {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &AsyncPublisher{
		next:    next,
		queue:   make(chan Event, size),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for e := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.Publish(ctx, e)
		cancel()
		if err != nil {
			p.logger.Warn().Err(err).Str("type", e.Type).Int64("profileID", e.ProfileID).Msg("Failed to publish workflow event")
		}
	}
}

// Publish enqueues e
func (p *AsyncPublisher) Publish(_ context.Context, e Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- e:
		return nil
	default:
		metrics.EventsPublished.WithLabelValues(e.Type, "dropped").Inc()
		return ErrQueueFull
	}
}

// Close stops accepting events, waits a bounded time for the queue to drain and closes next
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(drainTimeout):
		p.logger.Warn().Int("pending", len(p.queue)).Msg("Event queue not drained before shutdown")
	}
	return p.next.Close()
}
