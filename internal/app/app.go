// Package app assembles the submission pipeline from configuration. Both
// binaries share it.
package app

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/config"
	"github.com/example/contact-service/internal/dispatch"
	"github.com/example/contact-service/internal/kafka/producer"
	kafkapublisher "github.com/example/contact-service/internal/kafka/publisher"
	"github.com/example/contact-service/internal/logger"
	emailprovider "github.com/example/contact-service/internal/providers/email"
	"github.com/example/contact-service/internal/providers/factory"
	"github.com/example/contact-service/internal/submission"
	"github.com/example/contact-service/internal/validation"
)

// Option overrides part of the assembled pipeline.
type Option func(*options)

type options struct {
	provider  emailprovider.Provider
	publisher submission.EventPublisher
}

// WithProvider replaces the configured email provider.
func WithProvider(p emailprovider.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithPublisher replaces the configured submission event publisher.
func WithPublisher(p submission.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// Pipeline is the wired controller plus the resources it owns. Publisher is
// the queue in front of the configured event sink.
type Pipeline struct {
	Controller *submission.Controller
	Provider   emailprovider.Provider
	Publisher  *kafkapublisher.AsyncPublisher

	sink     submission.EventPublisher
	producer *producer.Producer
	closers  []func() error
}

// Build wires provider, dispatch client, event publisher and controller.
func Build(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	log = logger.OrNop(log)

	settings := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	policy, err := validation.ParsePolicy(cfg.Validation.LengthPolicy)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Dispatch.ProviderTimeoutSeconds) * time.Second
	p := &Pipeline{}

	p.Provider = settings.provider
	if p.Provider == nil {
		p.Provider, err = factory.Email(cfg.Providers, timeout, logger.Component(log, "email-provider"))
		if err != nil {
			return nil, err
		}
	}

	client, err := dispatch.NewClient(p.Provider, logger.Component(log, "dispatch"),
		dispatch.WithConcurrency(cfg.Dispatch.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	p.sink = settings.publisher
	if p.sink == nil {
		p.sink, err = p.eventPublisher(cfg.Kafka, log)
		if err != nil {
			return nil, err
		}
	}

	p.Publisher, err = kafkapublisher.NewAsyncPublisher(p.sink, cfg.Kafka.EventBuffer,
		publishTimeout(cfg.Kafka), logger.Component(log, "submission-events"))
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.closers = append(p.closers, p.Publisher.Close)

	p.Controller, err = submission.NewController(submission.Config{
		Validation: validation.Options{
			MaxLength: cfg.Validation.FieldMaxLength,
			Policy:    policy,
		},
		Credentials: dispatch.Credentials{
			APIKey:      cfg.Providers.Brevo.APIKey,
			SenderEmail: cfg.Contact.FromEmail,
		},
		SenderName:      cfg.Contact.SenderName,
		RecipientEmail:  cfg.Contact.RecipientEmail,
		ProviderTimeout: timeout,
	}, submission.Dependencies{
		Dispatcher: client,
		Publisher:  p.Publisher,
		Logger:     log,
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	if !cfg.CredentialsPresent() {
		log.Warn().Str("email_provider", cfg.Providers.EmailProvider).Msg("BREVO_API_KEY or CONTACT_FROM_EMAIL not set; submissions will fail until configured")
	}

	return p, nil
}

func (p *Pipeline) eventPublisher(cfg config.KafkaConfig, log zerolog.Logger) (submission.EventPublisher, error) {
	if !cfg.Enabled() {
		return kafkapublisher.NewLogPublisher(logger.Component(log, "submission-events")), nil
	}

	prod, err := producer.New(cfg.Brokers, logger.Component(log, "kafka"),
		producer.WithConfig(producer.NewSaramaConfig(cfg.ClientID, publishTimeout(cfg))),
	)
	if err != nil {
		return nil, err
	}
	p.producer = prod
	p.closers = append(p.closers, prod.Close)

	return kafkapublisher.NewSubmissionPublisher(prod, cfg.SubmissionTopic, logger.Component(log, "submission-events")), nil
}

// Ready reports whether submission events can currently be delivered. It is
// always true when Kafka is not configured.
func (p *Pipeline) Ready() bool {
	if p.producer == nil {
		return true
	}
	return p.producer.IsReady()
}

func publishTimeout(cfg config.KafkaConfig) time.Duration {
	return time.Duration(cfg.PublishTimeoutSeconds) * time.Second
}

// Close drains queued events, then releases resources opened by Build.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
