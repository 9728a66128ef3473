package factory

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/config"
	emailprovider "github.com/example/contact-service/internal/providers/email"
)

func TestEmailBackends(t *testing.T) {
	cases := map[string]any{
		"":       &emailprovider.BrevoProvider{},
		"brevo":  &emailprovider.BrevoProvider{},
		" MOCK ": &emailprovider.MockProvider{},
	}

	for backend, want := range cases {
		provider, err := Email(config.ProviderConfig{EmailProvider: backend}, time.Second, zerolog.Nop())
		if err != nil {
			t.Fatalf("backend %q: unexpected error: %v", backend, err)
		}
		switch want.(type) {
		case *emailprovider.BrevoProvider:
			if _, ok := provider.(*emailprovider.BrevoProvider); !ok {
				t.Fatalf("backend %q: expected brevo provider, got %T", backend, provider)
			}
		case *emailprovider.MockProvider:
			if _, ok := provider.(*emailprovider.MockProvider); !ok {
				t.Fatalf("backend %q: expected mock provider, got %T", backend, provider)
			}
		}
	}
}

func TestEmailUnsupportedBackend(t *testing.T) {
	if _, err := Email(config.ProviderConfig{EmailProvider: "smtp"}, time.Second, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}
