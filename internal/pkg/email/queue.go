package email

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when no more mail can be queued
var ErrQueueFull = errors.New("email queue full")

const drainTimeout = 10 * time.Second

type mailJob struct {
	kind    string
	send    func(toEmail, toName string) error
	toEmail string
	toName  string
}

// QueuedSender delivers mail from a background goroutine so callers never wait on SMTP
type QueuedSender struct {
	next   EmailService
	jobs   chan mailJob
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewQueuedSender starts the delivery worker for next
func NewQueuedSender(next EmailService, size int, logger zerolog.Logger) *QueuedSender {
	if size <= 0 {
		size = 64
	}
	q := &QueuedSender{
		next:   next,
		jobs:   make(chan mailJob, size),
		logger: logger,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *QueuedSender) run() {
	defer close(q.done)
	for job := range q.jobs {
		if err := job.send(job.toEmail, job.toName); err != nil {
			q.logger.Warn().Err(err).Str("kind", job.kind).Str("toEmail", job.toEmail).Msg("Failed to deliver queued email")
		}
	}
}

func (q *QueuedSender) enqueue(job mailJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueFull
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendAccountApproved queues the approval mail
func (q *QueuedSender) SendAccountApproved(toEmail, toName string) error {
	return q.enqueue(mailJob{kind: "approved", send: q.next.SendAccountApproved, toEmail: toEmail, toName: toName})
}

// SendAccountRejected queues the rejection mail
func (q *QueuedSender) SendAccountRejected(toEmail, toName string) error {
	return q.enqueue(mailJob{kind: "rejected", send: q.next.SendAccountRejected, toEmail: toEmail, toName: toName})
}

// Close stops accepting mail and waits a bounded time for queued mail to go out
func (q *QueuedSender) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	select {
	case <-q.done:
	case <-time.After(drainTimeout):
		q.logger.Warn().Int("pending", len(q.jobs)).Msg("Email queue not drained before shutdown")
	}
}
