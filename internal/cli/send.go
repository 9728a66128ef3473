package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/contact-service/internal/app"
	"github.com/example/contact-service/internal/config"
	"github.com/example/contact-service/internal/formstate"
	"github.com/example/contact-service/internal/logger"
	"github.com/example/contact-service/internal/models"
	emailprovider "github.com/example/contact-service/internal/providers/email"
)

func sendCmd() *cobra.Command {
	var fields submissionFlags
	var mockScenario string
	var logLevel string

	c := &cobra.Command{
		Use:   "send",
		Short: "Submit through the full pipeline using the environment configuration",
		Long: "Loads configuration like contact-server does, then submits once while " +
			"printing each form state transition. --mock-scenario swaps in the mock " +
			"provider so no email leaves the process.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := logger.New("contact-probe", cfg.App.Env, logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var opts []app.Option
			if mockScenario != "" {
				scenario := emailprovider.Scenario(strings.ToLower(mockScenario))
				opts = append(opts, app.WithProvider(emailprovider.NewMockProvider(*log, emailprovider.WithDefaultScenario(scenario))))
			}

			pipeline, err := app.Build(cfg, *log, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = pipeline.Close() }()

			out := cmd.OutOrStdout()
			session, err := formstate.NewSession(pipeline.Controller, formstate.WithObserver(
				formstate.ObserverFunc(func(t formstate.Transition) {
					fmt.Fprintf(out, "%s -> %s\n", t.From, t.To)
				}),
			))
			if err != nil {
				return err
			}

			res, err := session.Submit(cmd.Context(), fields.request())
			if err != nil {
				return err
			}
			if res.Kind == models.ResultSuccess {
				return printJSON(out, map[string]bool{"success": true})
			}
			if err := printJSON(out, map[string]any{"errors": res.Errors}); err != nil {
				return err
			}
			return errors.New("submission failed: " + res.Kind.String())
		},
	}

	fields.register(c)
	c.Flags().StringVar(&mockScenario, "mock-scenario", "", "Use the mock provider with this scenario (success, provider_error, unauthorized, network_error)")
	c.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for pipeline logs written to stderr")
	return c
}
