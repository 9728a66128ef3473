package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Field length policies.
const (
	LengthPolicyReject   = "reject"
	LengthPolicyTruncate = "truncate"
)

// Email provider backends.
const (
	ProviderBrevo = "brevo"
	ProviderMock  = "mock"
)

// Config captures all runtime configuration for the contact service.
type Config struct {
	App        AppConfig
	Contact    ContactConfig
	Providers  ProviderConfig
	Validation ValidationConfig
	Dispatch   DispatchConfig
	Kafka      KafkaConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// ContactConfig describes who the contact email comes from and goes to.
type ContactConfig struct {
	FromEmail      string
	SenderName     string
	RecipientEmail string
}

// BrevoConfig stores the Brevo transactional email credentials.
type BrevoConfig struct {
	APIKey  string
	BaseURL string
}

// ProviderConfig selects and configures the email provider.
type ProviderConfig struct {
	EmailProvider string
	Brevo         BrevoConfig
}

// ValidationConfig holds the limits applied to inbound submissions.
type ValidationConfig struct {
	FieldMaxLength int
	LengthPolicy   string
	FormMaxBytes   int
}

// DispatchConfig bounds outbound provider calls.
type DispatchConfig struct {
	ProviderTimeoutSeconds int
	Concurrency            int
}

// KafkaConfig enables submission events. Events are disabled when Brokers is
// empty. PublishTimeoutSeconds bounds both the broker round trip and how long
// a queued event may wait; EventBuffer is the queue depth.
type KafkaConfig struct {
	Brokers               []string
	SubmissionTopic       string
	ClientID              string
	PublishTimeoutSeconds int
	EventBuffer           int
}

// Enabled reports whether submission events should be published.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// CredentialsPresent reports whether both secrets needed to send email are set.
// Their absence is not a load error: each submission reports it instead.
func (c *Config) CredentialsPresent() bool {
	return c.Providers.Brevo.APIKey != "" && c.Contact.FromEmail != ""
}

// Load reads environment variables (and an optional .env file), applies
// defaults, validates values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Contact.FromEmail = ldr.getString("CONTACT_FROM_EMAIL", "", false)
	cfg.Contact.SenderName = ldr.getString("CONTACT_SENDER_NAME", "GBICT-website", false)
	cfg.Contact.RecipientEmail = ldr.getString("CONTACT_RECIPIENT_EMAIL", cfg.Contact.FromEmail, false)

	cfg.Providers.EmailProvider = strings.ToLower(ldr.getString("EMAIL_PROVIDER", ProviderBrevo, false))
	cfg.Providers.Brevo.APIKey = ldr.getString("BREVO_API_KEY", "", false)
	cfg.Providers.Brevo.BaseURL = ldr.getString("BREVO_BASE_URL", "https://api.brevo.com", false)

	cfg.Validation.FieldMaxLength = ldr.getInt("FIELD_MAX_LENGTH", 512, false)
	cfg.Validation.LengthPolicy = strings.ToLower(ldr.getString("FIELD_LENGTH_POLICY", LengthPolicyReject, false))
	cfg.Validation.FormMaxBytes = ldr.getInt("FORM_MAX_BYTES", 16*1024, false)

	cfg.Dispatch.ProviderTimeoutSeconds = ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 10, false)
	cfg.Dispatch.Concurrency = ldr.getInt("DISPATCH_CONCURRENCY", 4, false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Kafka.SubmissionTopic = ldr.getString("KAFKA_SUBMISSION_TOPIC", "contact.submissions", false)
	cfg.Kafka.ClientID = ldr.getString("KAFKA_CLIENT_ID", "contact-service", false)
	cfg.Kafka.PublishTimeoutSeconds = ldr.getInt("KAFKA_PUBLISH_TIMEOUT_SECONDS", 5, false)
	cfg.Kafka.EventBuffer = ldr.getInt("KAFKA_EVENT_BUFFER", 64, false)

	ldr.checkOneOf("EMAIL_PROVIDER", cfg.Providers.EmailProvider, ProviderBrevo, ProviderMock)
	ldr.checkOneOf("FIELD_LENGTH_POLICY", cfg.Validation.LengthPolicy, LengthPolicyReject, LengthPolicyTruncate)
	ldr.checkPositive("FIELD_MAX_LENGTH", cfg.Validation.FieldMaxLength)
	ldr.checkPositive("FORM_MAX_BYTES", cfg.Validation.FormMaxBytes)
	ldr.checkPositive("PROVIDER_TIMEOUT_SECONDS", cfg.Dispatch.ProviderTimeoutSeconds)
	ldr.checkPositive("DISPATCH_CONCURRENCY", cfg.Dispatch.Concurrency)
	ldr.checkPositive("KAFKA_PUBLISH_TIMEOUT_SECONDS", cfg.Kafka.PublishTimeoutSeconds)
	ldr.checkPositive("KAFKA_EVENT_BUFFER", cfg.Kafka.EventBuffer)
	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		ldr.addError(fmt.Sprintf("APP_PORT %d is out of range", cfg.App.Port))
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) checkOneOf(key, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	l.addError(fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")))
}

func (l *envLoader) checkPositive(key string, value int) {
	if value <= 0 {
		l.addError(fmt.Sprintf("%s must be greater than zero", key))
	}
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
