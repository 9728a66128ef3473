package producer

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
)

// Option customises the producer during construction.
type Option func(*options)

type options struct {
	config *sarama.Config
}

// WithConfig allows callers to supply a preconfigured Sarama config. The
// configuration is copied so the caller retains ownership.
func WithConfig(cfg *sarama.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

// Producer wraps a Sarama sync producer and remembers whether the last publish
// succeeded.
type Producer struct {
	logger   zerolog.Logger
	producer sarama.SyncProducer
	ready    atomic.Bool
}

// New constructs a Producer connected to brokers.
func New(brokers []string, log zerolog.Logger, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka producer: at least one broker is required")
	}

	settings := &options{config: NewSaramaConfig(defaultClientID, defaultTimeout)}
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}
	cfg := *settings.config

	syncProd, err := sarama.NewSyncProducer(brokers, &cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: create sync producer: %w", err)
	}

	return NewFromSyncProducer(syncProd, log), nil
}

// NewFromSyncProducer wraps an existing Sarama producer, e.g. a mock.
func NewFromSyncProducer(syncProd sarama.SyncProducer, log zerolog.Logger) *Producer {
	p := &Producer{
		logger:   logger.OrNop(log),
		producer: syncProd,
	}
	p.ready.Store(true)
	return p
}

// PublishSync publishes a message and waits for the broker acknowledgement.
func (p *Producer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	if topic == "" {
		return errors.New("kafka producer: topic is required")
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(payload),
		Headers: toRecordHeaders(headers),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.ready.Store(false)
		return fmt.Errorf("kafka producer: send sync: %w", err)
	}

	p.ready.Store(true)
	p.logger.Debug().
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("kafka producer published message")
	return nil
}

// IsReady reports whether the most recent publish succeeded.
func (p *Producer) IsReady() bool {
	return p.ready.Load()
}

// Close releases the underlying Sarama producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

func toRecordHeaders(headers map[string][]byte) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	out := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		out = append(out, sarama.RecordHeader{
			Key:   []byte(k),
			Value: append([]byte(nil), v...),
		})
	}
	return out
}

const (
	defaultClientID = "contact-service"
	defaultTimeout  = 5 * time.Second
)

// NewSaramaConfig returns the sync producer settings used for submission
// events. timeout bounds dialing, reads, writes and the broker ack.
func NewSaramaConfig(clientID string, timeout time.Duration) *sarama.Config {
	if clientID == "" {
		clientID = defaultClientID
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = timeout
	cfg.Net.DialTimeout = timeout
	cfg.Net.ReadTimeout = timeout
	cfg.Net.WriteTimeout = timeout
	return cfg
}
