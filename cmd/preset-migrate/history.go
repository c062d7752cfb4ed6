// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/preset-migrate/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the files recorded in a migration journal",
	Long: `History prints every preset recorded in the journal given with
--journal: when it was migrated, how many parameters changed, and the
digest of the file as written. Files whose current content still matches
that digest are skipped by later runs with the same journal.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("journal")
	if path == "" {
		return fmt.Errorf("--journal is required")
	}
	cmd.SilenceUsage = true

	// Open would create an empty journal for a mistyped path.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reading journal %s: %w", path, err)
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Entries(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []journal.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No migrated files recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-6s  %-12s  %s\n", "Migrated", "Params", "Digest", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range entries {
		digest := e.ResultSHA256
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(w, "%-20s  %-6d  %-12s  %s\n",
			e.MigratedAt.Local().Format(time.DateTime), e.Parameters, digest, e.Path)
	}
	fmt.Fprintf(w, "\n%d files\n", len(entries))
	return nil
}
