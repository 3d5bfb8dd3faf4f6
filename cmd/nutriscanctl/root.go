package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan-api/internal/config"
	"github.com/nutriscan/nutriscan-api/internal/observability"
)

// cliState is shared by subcommands once the root pre-run has loaded config.
type cliState struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "nutriscanctl",
		Short: "Administrative tasks for the NutriScan API",
		Long: `nutriscanctl operates on the same configuration as the API server.
It hashes and migrates stored passwords and issues or inspects access tokens.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.App, cfg.Logger)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newPasswordsCmd(state), newTokenCmd(state))
	return root
}
