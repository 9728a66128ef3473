package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/example/contact-service/internal/models"
)

// DefaultMaxLength is the cap applied to the email and message fields.
const DefaultMaxLength = 512

// LengthPolicy decides what happens to a field longer than the cap.
type LengthPolicy int

const (
	// RejectOverLength reports an over-length field as a validation error.
	RejectOverLength LengthPolicy = iota
	// TruncateOverLength silently cuts the field to the cap.
	TruncateOverLength
)

// User facing messages.
const (
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgEmptyMessage  = "Please enter a message."
	msgTooLongFormat = "Your %s must be at most %d characters."
)

// local@domain.tld: something before the @, at least one dot separated label
// and a final label of two or more characters.
var emailPattern = regexp.MustCompile(`^[^\s@]+@(?:[^\s@.]+\.)+[^\s@.]{2,}$`)

// Options configures Validate and Normalize.
type Options struct {
	MaxLength int
	Policy    LengthPolicy
}

// DefaultOptions rejects fields longer than DefaultMaxLength.
func DefaultOptions() Options {
	return Options{MaxLength: DefaultMaxLength, Policy: RejectOverLength}
}

// ParsePolicy maps a configuration value to a LengthPolicy.
func ParsePolicy(value string) (LengthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "reject":
		return RejectOverLength, nil
	case "truncate":
		return TruncateOverLength, nil
	default:
		return RejectOverLength, fmt.Errorf("validation: unknown length policy %q", value)
	}
}

// Validate checks the email and message fields of req and returns the failed
// fields. It never mutates req and returns an empty, non-nil map when the
// submission is valid.
func Validate(req models.SubmissionRequest, opts Options) models.ValidationErrors {
	opts = opts.withDefaults()
	errs := make(models.ValidationErrors)

	// Lengths are measured on the values that would be sent.
	norm := Normalize(req, opts)
	if opts.Policy == RejectOverLength {
		if exceedsRunes(norm.Email, opts.MaxLength) {
			errs[models.FieldEmail] = fmt.Sprintf(msgTooLongFormat, "email", opts.MaxLength)
		}
		if exceedsRunes(norm.Message, opts.MaxLength) {
			errs[models.FieldMessage] = fmt.Sprintf(msgTooLongFormat, "message", opts.MaxLength)
		}
	}

	if _, failed := errs[models.FieldEmail]; !failed && !ValidEmail(norm.Email) {
		errs[models.FieldEmail] = MsgInvalidEmail
	}
	if _, failed := errs[models.FieldMessage]; !failed && strings.TrimSpace(norm.Message) == "" {
		errs[models.FieldMessage] = MsgEmptyMessage
	}

	return errs
}

// Normalize returns the values that will be used to build the outbound
// message: the email is trimmed and, under TruncateOverLength, both fields are
// cut to the cap. The honeypot is carried over unchanged.
func Normalize(req models.SubmissionRequest, opts Options) models.SubmissionRequest {
	opts = opts.withDefaults()
	out := models.SubmissionRequest{
		Honeypot: req.Honeypot,
		Email:    strings.TrimSpace(req.Email),
		Message:  req.Message,
	}
	if opts.Policy == TruncateOverLength {
		out.Email = truncateRunes(out.Email, opts.MaxLength)
		out.Message = truncateRunes(out.Message, opts.MaxLength)
	}
	return out
}

// ValidEmail reports whether value has the local@domain.tld shape.
func ValidEmail(value string) bool {
	if value == "" {
		return false
	}
	return emailPattern.MatchString(value)
}

func (o Options) withDefaults() Options {
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	return o
}

func exceedsRunes(value string, max int) bool {
	return utf8.RuneCountInString(value) > max
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
