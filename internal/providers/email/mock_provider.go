package email

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
)

// Scenario enumerates the supported mock behaviours.
type Scenario string

const (
	ScenarioSuccess       Scenario = "success"
	ScenarioProviderError Scenario = "provider_error"
	ScenarioUnauthorized  Scenario = "unauthorized"
	ScenarioNetworkError  Scenario = "network_error"
)

// Option customizes the behaviour of the mock provider at construction time.
type Option func(*MockProvider)

// WithLatency makes every call take d before answering. Negative values are
// clamped to zero.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithDefaultScenario selects how every call is answered. Unknown scenarios
// behave like ScenarioSuccess.
func WithDefaultScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithRandomSeed swaps the RNG seed used when generating provider identifiers.
func WithRandomSeed(seed int64) Option {
	return func(p *MockProvider) {
		p.rnd = rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic seed for tests.
	}
}

// MockProvider is an in-memory provider for local development and tests. It
// records every payload it receives.
type MockProvider struct {
	logger          zerolog.Logger
	latency         time.Duration
	defaultScenario Scenario

	mu   sync.Mutex
	rnd  *rand.Rand
	sent []Payload
	keys []string
}

// NewMockProvider constructs a mock provider that succeeds immediately unless
// configured otherwise.
func NewMockProvider(log zerolog.Logger, opts ...Option) *MockProvider {
	p := &MockProvider{
		logger:          logger.OrNop(log),
		defaultScenario: ScenarioSuccess,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Send records the payload and answers according to the selected scenario.
func (p *MockProvider) Send(ctx context.Context, creds Credentials, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("mock provider: payload is required")
	}
	if len(payload.To) == 0 {
		return nil, errors.New("mock provider: at least one recipient is required")
	}

	p.record(creds, payload)

	if err := p.sleep(ctx, p.latency); err != nil {
		return nil, err
	}

	scenario := p.defaultScenario
	p.logger.Debug().
		Str("provider", "mock").
		Str("scenario", string(scenario)).
		Str("submission_id", payload.SubmissionID).
		Msg("mock email provider invoked")

	switch scenario {
	case ScenarioProviderError:
		resp := p.response(500, "Internal Server Error", `{"code":"internal_error","message":"mock: provider failure"}`)
		return resp, fmt.Errorf("mock provider: http %d: %s", resp.Code, resp.Status)
	case ScenarioUnauthorized:
		resp := p.response(401, "Unauthorized", `{"code":"unauthorized","message":"Key not found"}`)
		return resp, fmt.Errorf("mock provider: http %d: %s", resp.Code, resp.Status)
	case ScenarioNetworkError:
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("mock: connection refused")}
	default:
		id := p.nextID()
		resp := p.response(201, "Created", fmt.Sprintf(`{"messageId":"%s"}`, id))
		resp.ID = id
		return resp, nil
	}
}

// Sent returns a copy of every payload received so far.
func (p *MockProvider) Sent() []Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Payload(nil), p.sent...)
}

// APIKeys returns the API keys presented with each call, in order.
func (p *MockProvider) APIKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func (p *MockProvider) record(creds Credentials, payload *Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *payload
	cp.To = append([]Address(nil), payload.To...)
	p.sent = append(p.sent, cp)
	p.keys = append(p.keys, creds.APIKey)
}

func (p *MockProvider) response(code int, status, body string) *RawResponse {
	return &RawResponse{
		Code:   code,
		Status: status,
		Body:   body,
	}
}

func (p *MockProvider) nextID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("<mock-%08x@smtp-relay.mailin.fr>", p.rnd.Uint32())
}

func (p *MockProvider) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
