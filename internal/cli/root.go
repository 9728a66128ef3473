// Package cli implements the contact-probe operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/contact-service/internal/models"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type submissionFlags struct {
	honeypot string
	email    string
	message  string
}

func (f *submissionFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.honeypot, "name", "", "Honeypot value (leave empty for a human submission)")
	c.Flags().StringVarP(&f.email, "email", "e", "", "Sender email address")
	c.Flags().StringVarP(&f.message, "message", "m", "", "Message text")
}

func (f *submissionFlags) request() models.SubmissionRequest {
	return models.SubmissionRequest{Honeypot: f.honeypot, Email: f.email, Message: f.message}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "contact-probe",
		Short:        "Exercise the contact submission pipeline from the command line",
		SilenceUsage: true,
	}

	cmd.AddCommand(validateCmd())
	cmd.AddCommand(sendCmd())
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
