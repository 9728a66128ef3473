package dispatch

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
	emailprovider "github.com/example/contact-service/internal/providers/email"
)

const (
	defaultRawBodyLimit = 1024
	defaultConcurrency  = 4
	submissionIDHeader  = "X-Submission-ID"
)

// Credentials are the secrets needed to send one message. Both come from
// configuration.
type Credentials struct {
	APIKey      string
	SenderEmail string
}

// Present reports whether both values are set.
func (c Credentials) Present() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.SenderEmail) != ""
}

// Option customises client behaviour.
type Option func(*Client)

// WithRawBodyLimit overrides the number of characters kept from a failed
// provider response body.
func WithRawBodyLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxRawChars = limit
		}
	}
}

// WithConcurrency bounds how many provider calls may be in flight at once
// across all submissions.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Client turns an OutboundMessage into exactly one provider call and
// classifies the outcome. It never retries.
type Client struct {
	logger      zerolog.Logger
	provider    emailprovider.Provider
	maxRawChars int
	concurrency int
	sem         *semaphore.Weighted
}

// NewClient constructs a dispatch client around provider.
func NewClient(provider emailprovider.Provider, log zerolog.Logger, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("dispatch client: provider dependency is required")
	}

	c := &Client{
		logger:      logger.OrNop(log),
		provider:    provider,
		maxRawChars: defaultRawBodyLimit,
		concurrency: defaultConcurrency,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.sem = semaphore.NewWeighted(int64(c.concurrency))

	return c, nil
}

// Send delivers msg. It returns ErrCredentialsMissing, a *ProviderError or an
// error wrapping ErrNetwork on failure.
func (c *Client) Send(ctx context.Context, msg models.OutboundMessage, creds Credentials) error {
	if !creds.Present() {
		return ErrCredentialsMissing
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		c.logger.Warn().
			Err(err).
			Str("submission_id", msg.SubmissionID).
			Msg("dispatch client: no provider slot before deadline")
		return WrapNetwork(err)
	}
	defer c.sem.Release(1)

	raw, err := c.provider.Send(ctx, emailprovider.Credentials{APIKey: creds.APIKey}, buildPayload(msg))
	if err != nil {
		classified := c.classify(raw, err)
		event := c.logger.Error().
			Err(err).
			Str("submission_id", msg.SubmissionID).
			Str("failure_kind", Kind(classified))
		if raw != nil {
			event = event.Int("provider_code", raw.Code).Str("provider_status", raw.Status)
		}
		event.Msg("dispatch client: send failed")
		return classified
	}

	entry := c.logger.Debug().Str("submission_id", msg.SubmissionID)
	if raw != nil {
		entry = entry.Int("provider_code", raw.Code).Str("provider_id", raw.ID)
	}
	entry.Msg("dispatch client: send succeeded")
	return nil
}

func (c *Client) classify(raw *emailprovider.RawResponse, err error) error {
	if raw != nil {
		return &ProviderError{
			StatusCode: raw.Code,
			StatusText: raw.Status,
			Body:       truncateRunes(raw.Body, c.maxRawChars),
			Err:        err,
		}
	}
	if isTransport(err) {
		return WrapNetwork(err)
	}
	return &ProviderError{Err: err}
}

func buildPayload(msg models.OutboundMessage) *emailprovider.Payload {
	payload := &emailprovider.Payload{
		SubmissionID: msg.SubmissionID,
		Sender:       emailprovider.Address{Email: msg.SenderEmail, Name: msg.SenderName},
		To:           []emailprovider.Address{{Email: msg.RecipientEmail}},
		ReplyTo:      emailprovider.Address{Email: msg.ReplyToEmail},
		Subject:      msg.Subject,
		TextContent:  msg.Body,
	}
	if msg.SubmissionID != "" {
		payload.Headers = map[string]string{submissionIDHeader: msg.SubmissionID}
	}
	return payload
}

func truncateRunes(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	return string([]rune(raw)[:limit])
}
