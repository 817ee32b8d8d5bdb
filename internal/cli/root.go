package cli

import (
	"github.com/spf13/cobra"

	"daily-planner/internal/app"
	"daily-planner/internal/config"
)

// NewRootCmd builds the plannerctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Manage the daily planner from the terminal",
		Long:          `plannerctl builds, shows and exports day schedules and imports calendar files without going through the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newSynthesizeCmd(),
		newShowCmd(),
		newImportCmd(),
		newExportCmd(),
		newMonthCmd(),
		newCleanupCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
