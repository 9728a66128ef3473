package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/config"
	emailprovider "github.com/example/contact-service/internal/providers/email"
)

// Email constructs the configured email provider, supporting Brevo and mock
// backends.
func Email(cfg config.ProviderConfig, timeout time.Duration, logger zerolog.Logger) (emailprovider.Provider, error) {
	backend := normalize(cfg.EmailProvider, config.ProviderBrevo)
	switch backend {
	case config.ProviderBrevo:
		provider := emailprovider.NewBrevoProvider(timeout, logger, emailprovider.WithBrevoBaseURL(cfg.Brevo.BaseURL))
		logger.Info().
			Str("backend", backend).
			Dur("timeout", timeout).
			Msg("email provider initialised")
		return provider, nil
	case config.ProviderMock:
		provider := emailprovider.NewMockProvider(logger)
		logger.Warn().
			Str("backend", backend).
			Msg("email provider initialised; messages will not leave this process")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported email provider backend %q", cfg.EmailProvider)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
