package formstate

import (
	"context"
	"errors"
	"sync"

	"github.com/example/contact-service/internal/models"
)

// Submitter runs one submission. *submission.Controller satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req models.SubmissionRequest) models.SubmissionResult
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req models.SubmissionRequest) models.SubmissionResult

func (f SubmitterFunc) Submit(ctx context.Context, req models.SubmissionRequest) models.SubmissionResult {
	return f(ctx, req)
}

// Session binds a Machine to a Submitter and allows a single submission in
// flight at a time. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	machine   *Machine
	submitter Submitter
}

// NewSession returns a Session in the Idle state.
func NewSession(s Submitter, opts ...SessionOption) (*Session, error) {
	if s == nil {
		return nil, errors.New("formstate: submitter dependency is required")
	}
	sess := &Session{machine: NewMachine(), submitter: s}
	for _, opt := range opts {
		if opt != nil {
			opt(sess)
		}
	}
	return sess, nil
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithObserver registers an observer for state transitions. The observer is
// called with the session lock held and must not call back into the session.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.machine.SetObserver(o) }
}

// State returns the current form state.
func (s *Session) State() models.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Errors returns the field errors shown for the last failed attempt.
func (s *Session) Errors() models.ValidationErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Errors()
}

// Submit runs req through the submitter. The lock is not held while the
// submitter runs, so State reports Submitting in the meantime and concurrent
// calls fail with ErrSubmissionInFlight.
func (s *Session) Submit(ctx context.Context, req models.SubmissionRequest) (models.SubmissionResult, error) {
	s.mu.Lock()
	err := s.machine.Begin()
	s.mu.Unlock()
	if err != nil {
		return models.SubmissionResult{}, err
	}

	res := s.submitter.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.machine.Resolve(res); err != nil {
		return res, err
	}
	return res, nil
}

// Edit records a field edit.
func (s *Session) Edit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Edit()
}

// Reset returns the form to Idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Reset()
}
