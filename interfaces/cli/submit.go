package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decision-go/application"
	"github.com/felixgeelhaar/decision-go/domain/schema"
	"github.com/felixgeelhaar/decision-go/infrastructure/assembly"
	"github.com/felixgeelhaar/decision-go/infrastructure/collab"
	"github.com/felixgeelhaar/decision-go/infrastructure/config"
	"github.com/felixgeelhaar/decision-go/infrastructure/validation"
)

// submitOptions holds options for the submit command.
type submitOptions struct {
	configPath string
}

// newSubmitCmd creates the submit command.
func (a *App) newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit <proposal-id>",
		Short: "Submit a draft proposal",
		Long: `Submit a draft proposal to its process. The proposal must be a draft,
the instance's current phase must allow submissions, and the proposal's
content must satisfy the instance's proposal schema. Content of
collaboration-backed proposals is fetched from the document service
configured under collab in the configuration file.

Examples:
  decisiond submit -c config.yaml 4f7c`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")

	return cmd
}

func (a *App) submit(cmd *cobra.Command, opts *submitOptions, proposalID string) error {
	cfg, err := a.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	initLogging(cfg)

	ctx := cmd.Context()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	service := application.NewSubmissionService(
		backend.proposals,
		backend.instances,
		nil,
		validation.NewValidator(),
		newAssembler(cfg),
	)

	p, err := service.SubmitProposal(ctx, proposalID)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(a.stderr, "proposal %s is incomplete:\n", proposalID)
			for field, msg := range verr.FieldErrors {
				fmt.Fprintf(a.stderr, "  %s: %s\n", field, msg)
			}
		}
		return err
	}

	fmt.Fprintf(a.stdout, "proposal %s submitted to instance %s\n", p.ID, p.ProcessInstanceID)
	return nil
}

// newAssembler builds the proposal content assembler backed by the
// configured document service, or nil when none is configured. The client
// is wrapped with retry and circuit breaker protection.
func newAssembler(cfg *config.Config) application.ContentAssembler {
	if cfg.Collab.BaseURL == "" {
		return nil
	}

	timeout := time.Duration(cfg.Collab.TimeoutSeconds) * time.Second
	store := collab.NewHTTPStore(collab.HTTPConfig{
		BaseURL: cfg.Collab.BaseURL,
		Timeout: timeout,
	})

	resilienceCfg := collab.DefaultConfig()
	if timeout > 0 {
		resilienceCfg.FetchTimeout = timeout
	}
	return assembly.NewAssembler(collab.NewResilientStore(store, resilienceCfg))
}
