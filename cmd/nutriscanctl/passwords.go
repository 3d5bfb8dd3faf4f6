package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan-api/internal/auth"
	"github.com/nutriscan/nutriscan-api/internal/persistence"
	"github.com/nutriscan/nutriscan-api/internal/repository"
	"github.com/nutriscan/nutriscan-api/internal/service"
)

func newPasswordsCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwords",
		Short: "Hash passwords and migrate legacy plaintext credentials",
	}
	cmd.AddCommand(newPasswordsHashCmd(state), newPasswordsMigrateCmd(state))
	return cmd
}

func newPasswordsHashCmd(state *cliState) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print a bcrypt hash for a password (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd, args)
			if err != nil {
				return err
			}
			if cost <= 0 {
				cost = state.cfg.Auth.BcryptCost
			}
			hash, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default AUTH_BCRYPT_COST)")
	return cmd
}

func newPasswordsMigrateCmd(state *cliState) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Replace every plaintext stored password with a bcrypt hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pg, err := persistence.NewPostgres(ctx, state.cfg.Postgres, state.logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			if pg.PoolHandle() == nil {
				return errors.New("a database is required: set DATABASE_URL or DB_HOST")
			}

			svc := service.NewAuthService(*state.cfg, service.AuthDependencies{
				CredentialRepo: repository.NewCredentialRepository(pg.PoolHandle()),
				Logger:         state.logger,
			})
			report, err := svc.MigrateLegacyPasswords(ctx, dryRun)
			if err != nil {
				return err
			}

			state.logger.Info("password migration finished",
				zap.Bool("dry_run", dryRun),
				zap.Int("scanned", report.Scanned),
				zap.Int("legacy", report.Legacy),
				zap.Int("migrated", report.Migrated),
				zap.Int("failed", len(report.Failed)))
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d legacy=%d migrated=%d failed=%d\n",
				report.Scanned, report.Legacy, report.Migrated, len(report.Failed))
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d credentials could not be migrated", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count legacy credentials")
	return cmd
}

func readSecret(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
