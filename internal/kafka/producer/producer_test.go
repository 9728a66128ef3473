package producer

import (
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
)

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := New(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestNewAppliesSuppliedConfig(t *testing.T) {
	cfg := NewSaramaConfig("probe-client", time.Second)
	// A sync producer must return successes; sarama rejects this before dialing.
	cfg.Producer.Return.Successes = false

	_, err := New([]string{"127.0.0.1:1"}, zerolog.Nop(), WithConfig(cfg))
	var cfgErr sarama.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error from supplied config, got %v", err)
	}
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := NewSaramaConfig("site-contact", 2*time.Second)
	if cfg.ClientID != "site-contact" {
		t.Fatalf("unexpected client id %q", cfg.ClientID)
	}
	if cfg.Producer.Timeout != 2*time.Second || cfg.Net.DialTimeout != 2*time.Second {
		t.Fatalf("expected timeout applied, got %v / %v", cfg.Producer.Timeout, cfg.Net.DialTimeout)
	}
	if !cfg.Producer.Return.Successes {
		t.Fatalf("sync producer requires Return.Successes")
	}

	def := NewSaramaConfig("", 0)
	if def.ClientID != defaultClientID || def.Producer.Timeout != defaultTimeout {
		t.Fatalf("unexpected defaults %q %v", def.ClientID, def.Producer.Timeout)
	}
}

func TestPublishSyncSendsMessage(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "contact.submissions" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "sub-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("unexpected headers")
		}
		return nil
	})

	p := NewFromSyncProducer(mock, zerolog.Nop())
	err := p.PublishSync("contact.submissions", []byte("sub-1"), map[string][]byte{"content-type": []byte("application/json")}, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsReady() {
		t.Fatalf("expected producer ready after success")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestPublishSyncFailureMarksNotReady(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewFromSyncProducer(mock, zerolog.Nop())
	err := p.PublishSync("topic", nil, nil, []byte(`{}`))
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if p.IsReady() {
		t.Fatalf("expected producer not ready after failure")
	}
	_ = p.Close()
}

func TestPublishSyncRequiresTopic(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewFromSyncProducer(mock, zerolog.Nop())
	if err := p.PublishSync("", nil, nil, nil); err == nil {
		t.Fatalf("expected error without topic")
	}
	_ = p.Close()
}
