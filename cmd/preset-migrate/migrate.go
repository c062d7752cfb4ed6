// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/preset-migrate/internal/journal"
	"github.com/pdiddy/preset-migrate/internal/migrate"
	"github.com/pdiddy/preset-migrate/internal/report"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	// Arguments are valid from here on; failures are not usage errors.
	cmd.SilenceUsage = true

	dir := args[0]
	cfg := migrationConfig()

	var j migrate.Journal
	if path := viper.GetString("journal"); path != "" {
		jr, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer jr.Close()
		j = jr
	}

	m, err := migrate.New(cfg, j, logger)
	if err != nil {
		return err
	}

	result, runErr := m.MigrateDir(cmd.Context(), dir, cmd.OutOrStdout())

	if path := viper.GetString("report"); path != "" && len(result.Files) > 0 {
		if err := report.Write(path, report.New(dir, cfg.DryRun, result.Files)); err != nil {
			if runErr == nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}
	return runErr
}
