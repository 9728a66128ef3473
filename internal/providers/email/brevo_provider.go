package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
)

const (
	defaultBrevoBaseURL  = "https://api.brevo.com"
	brevoSendPath        = "/v3/smtp/email"
	defaultBrevoBodySize = 16 * 1024
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BrevoOption customises the behaviour of the Brevo provider.
type BrevoOption func(*BrevoProvider)

// WithBrevoHTTPClient overrides the HTTP client used to talk to Brevo.
func WithBrevoHTTPClient(client HTTPClient) BrevoOption {
	return func(p *BrevoProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithBrevoBaseURL sets the Brevo API base URL. Useful for tests.
func WithBrevoBaseURL(baseURL string) BrevoOption {
	return func(p *BrevoProvider) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			p.baseURL = trimmed
		}
	}
}

// WithBrevoBodyLimit adjusts how many bytes are retained from the HTTP response body.
func WithBrevoBodyLimit(limit int64) BrevoOption {
	return func(p *BrevoProvider) {
		if limit > 0 {
			p.maxBodyBytes = limit
		}
	}
}

// BrevoProvider sends transactional email through the Brevo HTTP API.
type BrevoProvider struct {
	logger       zerolog.Logger
	httpClient   HTTPClient
	baseURL      string
	maxBodyBytes int64
}

// NewBrevoProvider constructs a Brevo-backed provider. The HTTP client
// timeout bounds every call.
func NewBrevoProvider(timeout time.Duration, log zerolog.Logger, opts ...BrevoOption) *BrevoProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &BrevoProvider{
		logger:       logger.OrNop(log),
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      defaultBrevoBaseURL,
		maxBodyBytes: defaultBrevoBodySize,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

type brevoRequest struct {
	Sender      Address           `json:"sender"`
	To          []Address         `json:"to"`
	ReplyTo     *Address          `json:"replyTo,omitempty"`
	Subject     string            `json:"subject"`
	TextContent string            `json:"textContent"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type brevoBody struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send posts the payload to Brevo's message-send endpoint. Transport failures
// return a nil RawResponse; non-2xx answers return the response and an error.
func (p *BrevoProvider) Send(ctx context.Context, creds Credentials, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("brevo provider: payload is required")
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, errors.New("brevo provider: api key is required")
	}
	if len(payload.To) == 0 {
		return nil, errors.New("brevo provider: at least one recipient is required")
	}

	body := brevoRequest{
		Sender:      payload.Sender,
		To:          append([]Address(nil), payload.To...),
		Subject:     payload.Subject,
		TextContent: payload.TextContent,
		Headers:     payload.Headers,
	}
	if payload.ReplyTo.Email != "" {
		replyTo := payload.ReplyTo
		body.ReplyTo = &replyTo
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("brevo provider: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+brevoSendPath, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("brevo provider: new request: %w", err)
	}
	req.Header.Set("api-key", creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brevo provider: http do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := p.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	parsed := parseBrevoBody(raw)
	result := &RawResponse{
		ID:     parsed.MessageID,
		Code:   resp.StatusCode,
		Status: statusText(resp),
		Body:   raw,
	}

	p.logger.Debug().
		Str("submission_id", payload.SubmissionID).
		Int("http_status", resp.StatusCode).
		Str("provider_id", result.ID).
		Msg("brevo provider answered")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return result, nil
	}

	message := parsed.Message
	if message == "" {
		message = result.Status
	}
	return result, fmt.Errorf("brevo provider: http %d: %s", resp.StatusCode, message)
}

func (p *BrevoProvider) readBody(rc io.ReadCloser) (string, error) {
	data, err := io.ReadAll(io.LimitReader(rc, p.maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("brevo provider: read body: %w", err)
	}
	return string(data), nil
}

func parseBrevoBody(body string) brevoBody {
	var parsed brevoBody
	if strings.TrimSpace(body) == "" {
		return parsed
	}
	_ = json.Unmarshal([]byte(body), &parsed)
	return parsed
}

// statusText returns the reason phrase of resp, e.g. "Bad Request".
func statusText(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
