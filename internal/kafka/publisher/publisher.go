package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
)

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// SyncProducer captures the subset of producer behaviour required by the publisher.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// ErrProducerNotInitialised exposes the sentinel error for callers and tests.
func ErrProducerNotInitialised() error {
	return errProducerNotInitialised
}

// SubmissionPublisher emits submission outcome events to a Kafka topic.
type SubmissionPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewSubmissionPublisher constructs a SubmissionPublisher. It returns nil when
// prod is nil.
func NewSubmissionPublisher(prod SyncProducer, topic string, log zerolog.Logger) *SubmissionPublisher {
	if prod == nil {
		return nil
	}
	return &SubmissionPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger.OrNop(log),
	}
}

// PublishSubmission writes the event to Kafka synchronously, keyed by
// submission id.
func (p *SubmissionPublisher) PublishSubmission(ctx context.Context, event models.SubmissionEvent) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka publisher: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal submission event: %w", err)
	}

	headers := map[string][]byte{
		"content-type": []byte("application/json"),
		"outcome":      []byte(event.Outcome),
	}

	if err := p.producer.PublishSync(p.topic, []byte(event.SubmissionID), headers, payload); err != nil {
		return fmt.Errorf("kafka publisher: publish submission event: %w", err)
	}
	return nil
}

// LogPublisher records submission events in the log only. It is used when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.OrNop(log)}
}

// PublishSubmission logs the event at debug level.
func (p *LogPublisher) PublishSubmission(_ context.Context, event models.SubmissionEvent) error {
	p.logger.Debug().
		Str("submission_id", event.SubmissionID).
		Str("outcome", event.Outcome).
		Strs("error_fields", event.ErrorFields).
		Str("failure_kind", event.FailureKind).
		Int64("duration_ms", event.DurationMs).
		Msg("submission event")
	return nil
}
