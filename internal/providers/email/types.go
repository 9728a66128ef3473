package email

import "context"

// Address is a mailbox with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Payload is the canonical representation of an outbound email passed to the
// provider.
type Payload struct {
	SubmissionID string
	Sender       Address
	To           []Address
	ReplyTo      Address
	Subject      string
	TextContent  string
	Headers      map[string]string
}

// Credentials authenticate a provider call. They are passed per call so that
// no provider ever holds a secret of its own.
type Credentials struct {
	APIKey string
}

// RawResponse mirrors the low level provider response. A non-nil RawResponse
// means the provider answered, whatever the status code.
type RawResponse struct {
	ID     string
	Code   int
	Status string
	Body   string
}

// Provider is the contract exposed by email provider implementations. A
// non-2xx answer is returned as both a RawResponse and an error.
type Provider interface {
	Send(ctx context.Context, creds Credentials, payload *Payload) (*RawResponse, error)
}
