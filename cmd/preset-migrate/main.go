// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the preset-migrate CLI.
// Implements: docs/ARCHITECTURE § Command Line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/preset-migrate/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE; nop until then.
var logger = zap.NewNop()

// rootCmd converts a directory of presets.
var rootCmd = &cobra.Command{
	Use:   "preset-migrate <preset-directory>",
	Short: "Convert synthesizer preset volumes and sustains to decibels",
	Long: `preset-migrate rewrites the XML presets directly inside a directory.
Oscillator volumes (uid "osc...volume") stored as linear gain become
20*log10(gain); envelope sustains (uid "env...sustain") stored as 0-100
percentages become 20*log10(sustain/100). Files are overwritten in place.

Every other parameter is left as it is. A value that is not a number stops
the run; the failing file and the files after it are not modified.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if viper.GetBool("verbose") {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runMigrate,
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"pattern":         "pattern",
	"dry_run":         "dry-run",
	"floor_db":        "floor-db",
	"report":          "report",
	"identifier_attr": "identifier-attr",
	"value_attr":      "value-attr",
}

// persistentFlagKeys are bound from the persistent flag set.
var persistentFlagKeys = map[string]string{
	"journal": "journal",
	"verbose": "verbose",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./preset-migrate.yaml or ~/.config/preset-migrate/config.yaml)")
	rootCmd.PersistentFlags().String("journal", "", "SQLite journal of migrated files; files already migrated are skipped")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every rewritten parameter")

	rootCmd.Flags().String("pattern", types.DefaultPattern, "glob for preset file names inside the directory")
	rootCmd.Flags().Bool("dry-run", false, "report the changes without writing any file")
	rootCmd.Flags().Float64("floor-db", 0, "clamp converted values below this level (default: no clamp, 0 becomes -inf)")
	rootCmd.Flags().String("report", "", "write a YAML report of the run to this path")
	rootCmd.Flags().String("identifier-attr", types.DefaultIdentifierAttr, "attribute holding the parameter identifier")
	rootCmd.Flags().String("value-attr", types.DefaultValueAttr, "attribute holding the parameter value")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("preset-migrate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "preset-migrate"))
		}
	}

	viper.SetEnvPrefix("PRESET_MIGRATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rules := types.DefaultRuleConfig()
	viper.SetDefault("rules.oscillator_prefix", rules.OscillatorPrefix)
	viper.SetDefault("rules.volume_marker", rules.VolumeMarker)
	viper.SetDefault("rules.envelope_prefix", rules.EnvelopePrefix)
	viper.SetDefault("rules.sustain_marker", rules.SustainMarker)

	for key, name := range flagKeys {
		_ = viper.BindPFlag(key, rootCmd.Flags().Lookup(name))
	}
	for key, name := range persistentFlagKeys {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// migrationConfig collects the run settings from flags, environment and
// config file.
func migrationConfig() types.MigrationConfig {
	cfg := types.MigrationConfig{
		RewriteConfig: types.RewriteConfig{
			Rules: types.RuleConfig{
				OscillatorPrefix: viper.GetString("rules.oscillator_prefix"),
				VolumeMarker:     viper.GetString("rules.volume_marker"),
				EnvelopePrefix:   viper.GetString("rules.envelope_prefix"),
				SustainMarker:    viper.GetString("rules.sustain_marker"),
			},
		},
		DocumentConfig: types.DocumentConfig{
			IdentifierAttr: viper.GetString("identifier_attr"),
			ValueAttr:      viper.GetString("value_attr"),
		},
		Pattern: viper.GetString("pattern"),
		DryRun:  viper.GetBool("dry_run"),
	}
	if viper.IsSet("floor_db") {
		floor := viper.GetFloat64("floor_db")
		cfg.FloorDB = &floor
	}
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
