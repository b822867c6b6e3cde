// Package cli wires the coordinator service into cobra commands for
// launching training runs and browsing stored summaries.
package cli

import (
	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	configPath string
	processors int
	folds      int
	epochs     int
)

var svc coordinator.Service

func SetCoordinator(s coordinator.Service) {
	svc = s
}

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [cv|sim|single]",
		Short: "Launch training runs",
		Long:  `Launch cross-validation, simulated multi-agent, or single-model training runs.`,
	}

	cvCmd := &cobra.Command{
		Use:   "cv",
		Short: "Run k-fold cross-validation",
		Long:  `Train one model per fold on the worker pool and evaluate the best fold on the test set.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := runConfig(cmd)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			summary, err := svc.RunCrossValidation(cmd.Context(), cfg)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summary)
		},
	}

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a multi-agent simulation",
		Long:  `Train shard-holding agents in synchronized rounds with parameter averaging between rounds.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := runConfig(cmd)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			summary, err := svc.RunSimulation(cmd.Context(), cfg)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summary)
		},
	}

	singleCmd := &cobra.Command{
		Use:   "single",
		Short: "Run single-model training",
		Long:  `Train one model on the whole training split without fold partitioning.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := runConfig(cmd)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			summary, err := svc.RunSingle(cmd.Context(), cfg)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summary)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file path")
	cmd.PersistentFlags().IntVarP(&processors, "processors", "p", 0, "worker pool size / agent count")
	cmd.PersistentFlags().IntVarP(&folds, "folds", "k", 0, "number of cross-validation folds")
	cmd.PersistentFlags().IntVarP(&epochs, "epochs", "e", 0, "training epochs per unit")

	cmd.AddCommand(cvCmd)
	cmd.AddCommand(simCmd)
	cmd.AddCommand(singleCmd)

	return cmd
}

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [view|list]",
		Short: "Stored run summaries",
		Long:  `View and list stored run summaries.`,
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View run summary",
		Long:  `View one stored run summary by ID.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			summary, err := svc.GetRun(cmd.Context(), args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summary)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List run summaries",
		Long:  `List stored run summaries in creation order.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := svc.ListRuns(cmd.Context(), defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)

	return cmd
}

func runConfig(cmd *cobra.Command) (parfold.Config, error) {
	cfg := parfold.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = parfold.LoadConfig(configPath)
		if err != nil {
			return parfold.Config{}, err
		}
	}

	if cmd.Flags().Changed("processors") {
		cfg.Processors = processors
	}
	if cmd.Flags().Changed("folds") {
		cfg.Folds = folds
	}
	if cmd.Flags().Changed("epochs") {
		cfg.Epochs = epochs
	}

	return cfg, nil
}
