package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/models"
	emailprovider "github.com/example/contact-service/internal/providers/email"
)

var validCreds = Credentials{APIKey: "xkeysib-test", SenderEmail: "noreply@example.com"}

func sampleMessage() models.OutboundMessage {
	return models.OutboundMessage{
		SubmissionID:   "sub-1",
		SenderEmail:    "noreply@example.com",
		SenderName:     "Website contact form",
		RecipientEmail: "inbox@example.com",
		ReplyToEmail:   "user@example.com",
		Subject:        "A message from user@example.com",
		Body:           "From: user@example.com\n\nHello there",
	}
}

func TestNewClientRequiresProvider(t *testing.T) {
	if _, err := NewClient(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without provider")
	}
}

func TestSendSuccessBuildsPayload(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithRandomSeed(1))
	client, err := NewClient(provider, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if err := client.Send(context.Background(), sampleMessage(), validCreds); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	sent := provider.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one provider call, got %d", len(sent))
	}
	p := sent[0]
	if p.Sender.Email != "noreply@example.com" || p.Sender.Name != "Website contact form" {
		t.Fatalf("unexpected sender %+v", p.Sender)
	}
	if len(p.To) != 1 || p.To[0].Email != "inbox@example.com" {
		t.Fatalf("unexpected recipients %+v", p.To)
	}
	if p.ReplyTo.Email != "user@example.com" {
		t.Fatalf("unexpected reply-to %+v", p.ReplyTo)
	}
	if p.Headers[submissionIDHeader] != "sub-1" {
		t.Fatalf("expected submission id header, got %+v", p.Headers)
	}
	if keys := provider.APIKeys(); keys[0] != "xkeysib-test" {
		t.Fatalf("expected api key to be passed through, got %v", keys)
	}
}

func TestSendCredentialsMissing(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	client, _ := NewClient(provider, zerolog.Nop())

	for _, creds := range []Credentials{{}, {APIKey: "k"}, {SenderEmail: "a@b.co"}, {APIKey: "  ", SenderEmail: "a@b.co"}} {
		err := client.Send(context.Background(), sampleMessage(), creds)
		if !errors.Is(err, ErrCredentialsMissing) {
			t.Fatalf("expected ErrCredentialsMissing for %+v, got %v", creds, err)
		}
	}
	if n := len(provider.Sent()); n != 0 {
		t.Fatalf("expected no provider call, got %d", n)
	}
}

func TestSendProviderError(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithDefaultScenario(emailprovider.ScenarioProviderError))
	client, _ := NewClient(provider, zerolog.Nop(), WithRawBodyLimit(10))

	err := client.Send(context.Background(), sampleMessage(), validCreds)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if perr.StatusCode != 500 || perr.StatusText != "Internal Server Error" {
		t.Fatalf("unexpected provider error %+v", perr)
	}
	if len([]rune(perr.Body)) != 10 {
		t.Fatalf("expected body truncated to 10 characters, got %q", perr.Body)
	}
	if Kind(err) != KindProvider {
		t.Fatalf("unexpected kind %s", Kind(err))
	}
}

func TestSendNetworkError(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithDefaultScenario(emailprovider.ScenarioNetworkError))
	client, _ := NewClient(provider, zerolog.Nop())

	err := client.Send(context.Background(), sampleMessage(), validCreds)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if Kind(err) != KindNetwork {
		t.Fatalf("unexpected kind %s", Kind(err))
	}
}

func TestSendAgainstBrevoHTTPServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := emailprovider.NewBrevoProvider(time.Second, zerolog.Nop(), emailprovider.WithBrevoBaseURL(server.URL))
	client, _ := NewClient(provider, zerolog.Nop())

	err := client.Send(context.Background(), sampleMessage(), validCreds)
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 provider error, got %v", err)
	}
	if !strings.Contains(perr.StatusText, "Service Unavailable") {
		t.Fatalf("expected status text, got %q", perr.StatusText)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls.Load())
	}
}

type blockingProvider struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	release  chan struct{}
}

func (b *blockingProvider) Send(ctx context.Context, _ emailprovider.Credentials, _ *emailprovider.Payload) (*emailprovider.RawResponse, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.peak {
		b.peak = b.inFlight
	}
	b.mu.Unlock()

	<-b.release

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
	return &emailprovider.RawResponse{Code: 201}, nil
}

func TestSendBoundsConcurrency(t *testing.T) {
	provider := &blockingProvider{release: make(chan struct{})}
	client, _ := NewClient(provider, zerolog.Nop(), WithConcurrency(2))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = client.Send(context.Background(), sampleMessage(), validCreds)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	if provider.peak > 2 {
		t.Fatalf("expected at most 2 concurrent provider calls, saw %d", provider.peak)
	}
}

func TestSendSlotTimeoutIsNetworkError(t *testing.T) {
	provider := &blockingProvider{release: make(chan struct{})}
	defer close(provider.release)
	client, _ := NewClient(provider, zerolog.Nop(), WithConcurrency(1))

	go func() { _ = client.Send(context.Background(), sampleMessage(), validCreds) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := client.Send(ctx, sampleMessage(), validCreds); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error when no slot is free, got %v", err)
	}
}

func TestKind(t *testing.T) {
	if Kind(nil) != "" {
		t.Fatalf("expected empty kind for nil")
	}
	if Kind(ErrCredentialsMissing) != KindCredentialsMissing {
		t.Fatalf("unexpected kind for credentials")
	}
	if Kind(errors.New("boom")) != KindUnknown {
		t.Fatalf("unexpected kind for plain error")
	}
	if !errors.Is(WrapNetwork(nil), ErrNetwork) {
		t.Fatalf("expected nil wrap to fall back to ErrNetwork")
	}
}
