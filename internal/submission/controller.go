package submission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/dispatch"
	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
	"github.com/example/contact-service/internal/spam"
	"github.com/example/contact-service/internal/validation"
)

// User facing messages for server side failures. Provider detail never
// reaches the caller.
const (
	MsgCredentialsMissing = "Email service is not configured correctly."
	MsgDispatchFailed     = "There was an error sending your email. Please try again later."
)

const defaultProviderTimeout = 10 * time.Second

// Dispatcher sends one outbound message. *dispatch.Client satisfies it.
type Dispatcher interface {
	Send(ctx context.Context, msg models.OutboundMessage, creds dispatch.Credentials) error
}

// EventPublisher receives one event per handled submission. Publishing is best
// effort.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, event models.SubmissionEvent) error
}

// Config contains the settings the controller applies to every submission.
type Config struct {
	Validation      validation.Options
	Credentials     dispatch.Credentials
	SenderName      string
	RecipientEmail  string
	ProviderTimeout time.Duration
}

// Dependencies collects the runtime collaborators required by the controller.
type Dependencies struct {
	Dispatcher Dispatcher
	Publisher  EventPublisher
	Logger     zerolog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Controller runs the submission pipeline: spam filter, validation,
// credentials check and dispatch.
type Controller struct {
	cfg        Config
	dispatcher Dispatcher
	publisher  EventPublisher
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewController validates cfg and deps and returns a ready controller.
func NewController(cfg Config, deps Dependencies) (*Controller, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("submission: dispatcher dependency is required")
	}
	if cfg.ProviderTimeout < 0 {
		return nil, errors.New("submission: provider timeout cannot be negative")
	}
	if cfg.ProviderTimeout == 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.RecipientEmail == "" {
		cfg.RecipientEmail = cfg.Credentials.SenderEmail
	}

	c := &Controller{
		cfg:        cfg,
		dispatcher: deps.Dispatcher,
		publisher:  deps.Publisher,
		logger:     logger.Component(deps.Logger, "submission"),
		now:        deps.Now,
		newID:      deps.NewID,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	return c, nil
}

// Submit handles one submission under a freshly generated id.
func (c *Controller) Submit(ctx context.Context, req models.SubmissionRequest) models.SubmissionResult {
	return c.SubmitWithID(ctx, c.newID(), req)
}

// SubmitWithID handles one submission. The result is Success for both a
// delivered message and a dropped bot submission. An empty id is replaced with
// a generated one.
func (c *Controller) SubmitWithID(ctx context.Context, id string, req models.SubmissionRequest) models.SubmissionResult {
	if id == "" {
		id = c.newID()
	}
	start := c.now()
	log := c.logger.With().Str("submission_id", id).Logger()

	if spam.IsBot(req) {
		log.Info().Msg("honeypot populated; dropping submission")
		c.publish(ctx, log, id, models.OutcomeSpamDropped, nil, "", start)
		return models.Success()
	}

	if errs := validation.Validate(req, c.cfg.Validation); len(errs) > 0 {
		fields := sortedKeys(errs)
		log.Info().Strs("fields", fields).Msg("submission failed validation")
		c.publish(ctx, log, id, models.OutcomeValidationFailed, fields, "", start)
		return models.ValidationFailure(errs)
	}

	if !c.cfg.Credentials.Present() {
		log.Error().Msg("email credentials are not configured; cannot send submission")
		c.publish(ctx, log, id, models.OutcomeCredentialsMissing, nil, dispatch.KindCredentialsMissing, start)
		return models.ServerFailure(models.FieldCredentials, MsgCredentialsMissing)
	}

	msg := c.buildMessage(id, validation.Normalize(req, c.cfg.Validation))

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ProviderTimeout)
	err := c.dispatcher.Send(sendCtx, msg, c.cfg.Credentials)
	cancel()

	if err != nil {
		kind := dispatch.Kind(err)
		if errors.Is(err, dispatch.ErrCredentialsMissing) {
			log.Error().Err(err).Msg("dispatch rejected credentials")
			c.publish(ctx, log, id, models.OutcomeCredentialsMissing, nil, kind, start)
			return models.ServerFailure(models.FieldCredentials, MsgCredentialsMissing)
		}
		log.Error().Err(err).Str("failure_kind", kind).Msg("submission dispatch failed")
		c.publish(ctx, log, id, models.OutcomeDispatchFailed, nil, kind, start)
		return models.ServerFailure(models.FieldServer, MsgDispatchFailed)
	}

	log.Info().Dur("duration", c.now().Sub(start)).Msg("submission sent")
	c.publish(ctx, log, id, models.OutcomeSent, nil, "", start)
	return models.Success()
}

// BuildMessage derives the outbound email for an already validated request.
func BuildMessage(id string, req models.SubmissionRequest, sender dispatch.Credentials, senderName, recipient string) models.OutboundMessage {
	if recipient == "" {
		recipient = sender.SenderEmail
	}
	return models.OutboundMessage{
		SubmissionID:   id,
		SenderEmail:    sender.SenderEmail,
		SenderName:     senderName,
		RecipientEmail: recipient,
		ReplyToEmail:   req.Email,
		Subject:        fmt.Sprintf("A message from %s", req.Email),
		Body:           fmt.Sprintf("From: %s\n\n%s", req.Email, req.Message),
	}
}

func (c *Controller) buildMessage(id string, req models.SubmissionRequest) models.OutboundMessage {
	return BuildMessage(id, req, c.cfg.Credentials, c.cfg.SenderName, c.cfg.RecipientEmail)
}

func (c *Controller) publish(ctx context.Context, log zerolog.Logger, id, outcome string, fields []string, kind string, start time.Time) {
	if c.publisher == nil {
		return
	}
	now := c.now()
	event := models.SubmissionEvent{
		SubmissionID: id,
		Outcome:      outcome,
		ErrorFields:  fields,
		FailureKind:  kind,
		DurationMs:   now.Sub(start).Milliseconds(),
		Timestamp:    now.UTC(),
	}
	if err := c.publisher.PublishSubmission(context.WithoutCancel(ctx), event); err != nil {
		log.Warn().Err(err).Str("outcome", outcome).Msg("failed to publish submission event")
	}
}

func sortedKeys(errs models.ValidationErrors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
