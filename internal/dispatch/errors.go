package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for the dispatch failure taxonomy.
var (
	ErrCredentialsMissing = errors.New("dispatch: provider api key or sender address not configured")
	ErrProvider           = errors.New("dispatch: provider error")
	ErrNetwork            = errors.New("dispatch: network error")
)

// Failure kinds as reported in logs and submission events.
const (
	KindCredentialsMissing = "credentials_missing"
	KindProvider           = "provider_error"
	KindNetwork            = "network_error"
	KindUnknown            = "unknown"
)

// ProviderError is returned when the provider answered with a non-success
// status. StatusText is for operators and must not reach end users.
type ProviderError struct {
	StatusCode int
	StatusText string
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %v", ErrProvider, e.Err)
	}
	return fmt.Sprintf("%v: %d %s", ErrProvider, e.StatusCode, e.StatusText)
}

// Is makes errors.Is(err, ErrProvider) hold for every ProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

func (e *ProviderError) Unwrap() error { return e.Err }

// WrapNetwork annotates a transport failure so callers can detect it.
func WrapNetwork(err error) error {
	if err == nil {
		return ErrNetwork
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// Kind classifies err into one of the failure kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialsMissing):
		return KindCredentialsMissing
	case errors.Is(err, ErrProvider):
		return KindProvider
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindUnknown
	}
}

func isTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
