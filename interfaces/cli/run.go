package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decision-go/application"
	"github.com/felixgeelhaar/decision-go/infrastructure/config"
	"github.com/felixgeelhaar/decision-go/infrastructure/logging"
	"github.com/felixgeelhaar/decision-go/infrastructure/telemetry"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	once       bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the transition monitor",
		Long: `Run the transition monitor: find scheduled transitions whose date has
passed and apply each exactly once, advancing the owning process
instance to its next phase.

The monitor is stateless and safe to run from overlapping invocations;
coordination lives entirely in the data store.

Examples:
  # Poll continuously at the configured interval
  decisiond run -c config.yaml

  # Process the current batch of due transitions and exit
  decisiond run -c config.yaml --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMonitor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single batch and exit")

	return cmd
}

func (a *App) runMonitor(cmd *cobra.Command, opts *runOptions) error {
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

	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	monitor := application.NewMonitor(backend.transitions, backend.applier, backend.instances,
		application.WithConcurrency(cfg.Monitor.Concurrency),
		application.WithBatchSize(cfg.Monitor.BatchSize),
		application.WithMonitorMetrics(metrics),
	)

	runOnce := func() error {
		result, err := monitor.RunDueTransitions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "processed=%d failed=%d skipped=%d\n",
			result.Processed, result.Failed, result.Skipped)
		for _, failure := range result.Failures {
			fmt.Fprintf(a.stderr, "  transition %s (instance %s): %s\n",
				failure.TransitionID, failure.ProcessInstanceID, failure.Message)
		}
		return nil
	}

	if opts.once {
		return runOnce()
	}

	interval := time.Duration(cfg.Monitor.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info().
		Add(logging.Component("monitor")).
		Add(logging.Duration(interval)).
		Msg("monitor started")

	if err := runOnce(); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("monitor run failed")
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info().Add(logging.Component("monitor")).Msg("monitor stopped")
			return nil
		case <-ticker.C:
			if err := runOnce(); err != nil {
				logging.Error().Add(logging.ErrorField(err)).Msg("monitor run failed")
			}
		}
	}
}

// loadConfig loads the daemon config, falling back to defaults when no
// path is given.
func (a *App) loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.NewLoader().LoadFile(path)
}

func initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})
}
