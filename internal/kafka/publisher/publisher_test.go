package publisher_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	kafkapublisher "github.com/example/contact-service/internal/kafka/publisher"
	"github.com/example/contact-service/internal/models"
)

type fakeSyncProducer struct {
	err     error
	topic   string
	key     []byte
	headers map[string][]byte
	payload []byte
}

func (f *fakeSyncProducer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	f.topic = topic
	f.key = append([]byte(nil), key...)
	f.headers = headers
	f.payload = append([]byte(nil), payload...)
	return f.err
}

func TestSubmissionPublisherPublishesEvent(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewSubmissionPublisher(prod, "contact.submissions", zerolog.Nop())
	if pub == nil {
		t.Fatalf("expected publisher instance")
	}

	event := models.SubmissionEvent{
		SubmissionID: "sub-1",
		Outcome:      models.OutcomeValidationFailed,
		ErrorFields:  []string{"email"},
		Timestamp:    time.Unix(123, 0).UTC(),
	}

	if err := pub.PublishSubmission(context.Background(), event); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if prod.topic != "contact.submissions" {
		t.Fatalf("expected topic contact.submissions, got %s", prod.topic)
	}
	if string(prod.key) != "sub-1" {
		t.Fatalf("expected key sub-1, got %s", string(prod.key))
	}
	if string(prod.headers["outcome"]) != models.OutcomeValidationFailed {
		t.Fatalf("expected outcome header, got %q", prod.headers["outcome"])
	}

	var payload models.SubmissionEvent
	if err := json.Unmarshal(prod.payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.Outcome != models.OutcomeValidationFailed || len(payload.ErrorFields) != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if strings.Contains(string(prod.payload), "@") {
		t.Fatalf("event payload must not carry addresses: %s", prod.payload)
	}
}

func TestSubmissionPublisherPropagatesProducerError(t *testing.T) {
	expectedErr := errors.New("broker down")
	pub := kafkapublisher.NewSubmissionPublisher(&fakeSyncProducer{err: expectedErr}, "topic", zerolog.Nop())

	err := pub.PublishSubmission(context.Background(), models.SubmissionEvent{SubmissionID: "id"})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestSubmissionPublisherNilProducer(t *testing.T) {
	if pub := kafkapublisher.NewSubmissionPublisher(nil, "topic", zerolog.Nop()); pub != nil {
		t.Fatalf("expected nil publisher for nil producer")
	}

	var pub *kafkapublisher.SubmissionPublisher
	if err := pub.PublishSubmission(context.Background(), models.SubmissionEvent{}); !errors.Is(err, kafkapublisher.ErrProducerNotInitialised()) {
		t.Fatalf("expected not initialised error, got %v", err)
	}
}

func TestLogPublisherLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	pub := kafkapublisher.NewLogPublisher(zerolog.New(&buf).Level(zerolog.DebugLevel))

	if err := pub.PublishSubmission(context.Background(), models.SubmissionEvent{SubmissionID: "sub-9", Outcome: models.OutcomeSent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "sub-9") {
		t.Fatalf("expected submission id in log, got %q", buf.String())
	}
}
