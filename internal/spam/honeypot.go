// Package spam detects automated contact form submissions.
package spam

import "github.com/example/contact-service/internal/models"

// IsBot reports whether the honeypot field was filled in. Humans never see the
// field, so any content at all marks the submission as automated.
func IsBot(req models.SubmissionRequest) bool {
	return req.Honeypot != ""
}
