package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
)

var (
	// ErrQueueFull is returned when the event queue has no free slot. The
	// event is dropped.
	ErrQueueFull = errors.New("kafka publisher: event queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kafka publisher: closed")
)

const (
	defaultQueueSize      = 64
	defaultPublishTimeout = 5 * time.Second
)

// EventPublisher is the synchronous publisher an AsyncPublisher drains into.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, event models.SubmissionEvent) error
}

// AsyncPublisher queues submission events and publishes them from a single
// background worker so callers never wait on the broker.
type AsyncPublisher struct {
	next    EventPublisher
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan models.SubmissionEvent
	done   chan struct{}
}

// NewAsyncPublisher starts the worker. size and timeout fall back to defaults
// when not positive; timeout bounds each downstream publish.
func NewAsyncPublisher(next EventPublisher, size int, timeout time.Duration, log zerolog.Logger) (*AsyncPublisher, error) {
	if next == nil {
		return nil, errors.New("kafka publisher: downstream publisher is required")
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	p := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		logger:  logger.OrNop(log),
		queue:   make(chan models.SubmissionEvent, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// PublishSubmission enqueues event without blocking. The caller's context is
// not used for the eventual publish.
func (p *AsyncPublisher) PublishSubmission(_ context.Context, event models.SubmissionEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queued ones to be attempted.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		p.publish(event)
	}
}

func (p *AsyncPublisher) publish(event models.SubmissionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.next.PublishSubmission(ctx, event); err != nil {
		p.logger.Warn().
			Err(err).
			Str("submission_id", event.SubmissionID).
			Str("outcome", event.Outcome).
			Msg("failed to publish submission event")
	}
}
