// Package formstate tracks the client observable lifecycle of one contact
// form: Idle, Submitting, then Success or Error.
package formstate

import (
	"errors"

	"github.com/example/contact-service/internal/models"
)

// ErrSubmissionInFlight is returned when a submission is attempted while
// another one for the same form is still pending.
var ErrSubmissionInFlight = errors.New("formstate: submission already in flight")

// Transition records one state change.
type Transition struct {
	From models.FormState
	To   models.FormState
}

// TransitionError indicates an invalid state transition was attempted.
type TransitionError struct {
	Current   models.FormState
	Attempted models.FormState
	Message   string
}

func (e *TransitionError) Error() string {
	if e.Message != "" {
		return "formstate: " + e.Message
	}
	return "formstate: invalid transition from " + e.Current.String() + " to " + e.Attempted.String()
}

// Observer receives notifications of state transitions.
type Observer interface {
	OnStateChange(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

func (f ObserverFunc) OnStateChange(t Transition) { f(t) }

type nopObserver struct{}

func (nopObserver) OnStateChange(Transition) {}

// Success is terminal until Reset; Error returns to Idle on edit or starts a
// fresh attempt directly.
var validTransitions = map[models.FormState][]models.FormState{
	models.FormIdle:       {models.FormSubmitting},
	models.FormSubmitting: {models.FormSuccess, models.FormError},
	models.FormError:      {models.FormIdle, models.FormSubmitting},
	models.FormSuccess:    {},
}

// Machine holds the state of one form. It is not safe for concurrent use; see
// Session.
type Machine struct {
	state    models.FormState
	errors   models.ValidationErrors
	observer Observer
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: models.FormIdle, observer: nopObserver{}}
}

// State returns the current state.
func (m *Machine) State() models.FormState { return m.state }

// Errors returns the field errors from the last failed attempt.
func (m *Machine) Errors() models.ValidationErrors { return m.errors.Clone() }

// SetObserver sets the state observer.
func (m *Machine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	m.observer = o
}

// Begin moves to Submitting. It fails with ErrSubmissionInFlight while a
// submission is pending.
func (m *Machine) Begin() error {
	if m.state == models.FormSubmitting {
		return ErrSubmissionInFlight
	}
	if err := m.transition(models.FormSubmitting); err != nil {
		return err
	}
	m.errors = nil
	return nil
}

// Resolve applies a controller result to a pending submission.
func (m *Machine) Resolve(res models.SubmissionResult) error {
	if m.state != models.FormSubmitting {
		return &TransitionError{
			Current:   m.state,
			Attempted: targetFor(res),
			Message:   "no submission in flight",
		}
	}
	if err := m.transition(targetFor(res)); err != nil {
		return err
	}
	if !res.OK() {
		m.errors = res.Errors.Clone()
	}
	return nil
}

// Edit records a field edit. An Error form returns to Idle and its errors are
// cleared; any other state is unchanged.
func (m *Machine) Edit() {
	if m.state != models.FormError {
		return
	}
	_ = m.transition(models.FormIdle)
	m.errors = nil
}

// Reset returns the form to Idle from any settled state, including Success.
func (m *Machine) Reset() error {
	if m.state == models.FormSubmitting {
		return ErrSubmissionInFlight
	}
	prev := m.state
	m.state = models.FormIdle
	m.errors = nil
	if prev != models.FormIdle {
		m.observer.OnStateChange(Transition{From: prev, To: models.FormIdle})
	}
	return nil
}

func (m *Machine) transition(to models.FormState) error {
	if !m.canTransition(to) {
		return &TransitionError{Current: m.state, Attempted: to}
	}
	t := Transition{From: m.state, To: to}
	m.state = to
	m.observer.OnStateChange(t)
	return nil
}

func (m *Machine) canTransition(to models.FormState) bool {
	for _, valid := range validTransitions[m.state] {
		if valid == to {
			return true
		}
	}
	return false
}

func targetFor(res models.SubmissionResult) models.FormState {
	if res.OK() {
		return models.FormSuccess
	}
	return models.FormError
}
