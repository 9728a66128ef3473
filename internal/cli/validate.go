package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/contact-service/internal/spam"
	"github.com/example/contact-service/internal/validation"
)

func validateCmd() *cobra.Command {
	var fields submissionFlags
	var policy string
	var maxLength int

	c := &cobra.Command{
		Use:   "validate",
		Short: "Run the spam filter and input validator (no email is sent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := validation.ParsePolicy(policy)
			if err != nil {
				return err
			}
			req := fields.request()
			out := cmd.OutOrStdout()

			if spam.IsBot(req) {
				fmt.Fprintln(out, "SPAM (honeypot populated; would be dropped silently)")
				return nil
			}

			errs := validation.Validate(req, validation.Options{MaxLength: maxLength, Policy: p})
			if len(errs) == 0 {
				fmt.Fprintln(out, "OK")
				return nil
			}
			if err := printJSON(out, map[string]any{"errors": errs}); err != nil {
				return err
			}
			return errors.New("submission is invalid")
		},
	}

	fields.register(c)
	c.Flags().StringVar(&policy, "policy", "reject", "Over-length policy: reject or truncate")
	c.Flags().IntVar(&maxLength, "max-length", validation.DefaultMaxLength, "Maximum characters per field")
	return c
}
