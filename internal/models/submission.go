package models

// Field names used on the wire and as ValidationErrors keys.
const (
	FieldHoneypot    = "name"
	FieldEmail       = "email"
	FieldMessage     = "message"
	FieldServer      = "server"
	FieldCredentials = "credentials"
)

// SubmissionRequest is the raw contact form as posted by the caller. The
// honeypot travels under the innocuous "name" field so that bots fill it in.
type SubmissionRequest struct {
	Honeypot string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// ValidationErrors maps a field name to a human readable message. Only failed
// fields are present; an empty map means the submission is valid.
type ValidationErrors map[string]string

// Clone returns an independent copy of the mapping.
func (e ValidationErrors) Clone() ValidationErrors {
	if e == nil {
		return nil
	}
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ResultKind tags a SubmissionResult.
type ResultKind int

const (
	// ResultSuccess covers both a delivered message and a silently dropped bot
	// submission.
	ResultSuccess ResultKind = iota
	// ResultValidationFailure is returned when the input validator rejected
	// one or more fields.
	ResultValidationFailure
	// ResultServerFailure covers configuration and provider failures.
	ResultServerFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultValidationFailure:
		return "validation_failure"
	case ResultServerFailure:
		return "server_failure"
	default:
		return "unknown"
	}
}

// SubmissionResult is the outcome of one controller invocation.
type SubmissionResult struct {
	Kind   ResultKind
	Errors ValidationErrors
}

// Success builds a successful result.
func Success() SubmissionResult {
	return SubmissionResult{Kind: ResultSuccess}
}

// ValidationFailure builds a result carrying field errors.
func ValidationFailure(errs ValidationErrors) SubmissionResult {
	return SubmissionResult{Kind: ResultValidationFailure, Errors: errs}
}

// ServerFailure builds a result for a configuration or provider failure.
func ServerFailure(field, message string) SubmissionResult {
	return SubmissionResult{Kind: ResultServerFailure, Errors: ValidationErrors{field: message}}
}

// OK reports whether the result is a success.
func (r SubmissionResult) OK() bool { return r.Kind == ResultSuccess }

// OutboundMessage is the email derived from a validated submission.
type OutboundMessage struct {
	SubmissionID   string
	SenderEmail    string
	SenderName     string
	RecipientEmail string
	ReplyToEmail   string
	Subject        string
	Body           string
}
