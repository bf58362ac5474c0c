package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decision-go/application"
	"github.com/felixgeelhaar/decision-go/domain/process"
)

// reconcileOptions holds options for the reconcile command.
type reconcileOptions struct {
	configPath string
	instanceID string
}

// newReconcileCmd creates the reconcile command.
func (a *App) newReconcileCmd() *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile scheduled transitions with instance configuration",
		Long: `Reconcile persisted scheduled transitions against each instance's phase
configuration: insert missing transitions, move dates of uncompleted
ones, and delete transitions no longer expected. Completed transitions
are never touched.

Examples:
  # Reconcile every active instance
  decisiond reconcile -c config.yaml

  # Reconcile one instance
  decisiond reconcile -c config.yaml --instance 4f7c`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.reconcile(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.instanceID, "instance", "", "Reconcile a single instance")

	return cmd
}

func (a *App) reconcile(cmd *cobra.Command, opts *reconcileOptions) error {
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

	scheduler := application.NewScheduler(nil, backend.transitions)

	var instances []*process.Instance
	if opts.instanceID != "" {
		instance, err := backend.instances.Get(ctx, opts.instanceID)
		if err != nil {
			return err
		}
		instances = append(instances, instance)
	} else {
		instances, err = backend.instances.List(ctx, process.ListFilter{
			Status: []process.InstanceStatus{process.InstanceStatusActive},
		})
		if err != nil {
			return err
		}
	}

	for _, instance := range instances {
		result, err := scheduler.ReconcileTransitions(ctx, instance)
		if err != nil {
			fmt.Fprintf(a.stderr, "instance %s: %v\n", instance.ID, err)
			continue
		}
		fmt.Fprintf(a.stdout, "instance %s: created=%d updated=%d deleted=%d skipped=%d\n",
			instance.ID, result.Created, result.Updated, result.Deleted, result.Skipped)
	}
	return nil
}
