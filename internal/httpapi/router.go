package httpapi

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/example/contact-service/internal/logger"
)

// ReadyFunc reports whether the service can fully handle submissions.
type ReadyFunc func() bool

// NewRouter wires the contact, health and readiness endpoints. A nil ready
// always reports ready.
func NewRouter(contact *ContactHandler, ready ReadyFunc, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	mux.HandleFunc("POST /contact", WithLogging(logger.Component(log, "http"), contact.Submit))

	return CORS(mux)
}
