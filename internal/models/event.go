package models

import "time"

// Submission outcomes reported on the event stream.
const (
	OutcomeSent               = "sent"
	OutcomeSpamDropped        = "spam_dropped"
	OutcomeValidationFailed   = "validation_failed"
	OutcomeCredentialsMissing = "credentials_missing"
	OutcomeDispatchFailed     = "dispatch_failed"
)

// SubmissionEvent describes what happened to a submission. It deliberately
// carries no address or message text.
type SubmissionEvent struct {
	SubmissionID string    `json:"submission_id"`
	Outcome      string    `json:"outcome"`
	ErrorFields  []string  `json:"error_fields,omitempty"`
	FailureKind  string    `json:"failure_kind,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}
