// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/preset-migrate/internal/report"
)

const testPreset = `<?xml version="1.0" encoding="UTF-8"?>
<PRESET name="Init">
  <PARAM uid="osc1volume" val="1.0"/>
  <PARAM uid="osc2volume" val="0"/>
  <PARAM uid="env1sustain" val="100"/>
  <PARAM uid="filter1.cutoff" val="1000"/>
</PRESET>
`

// execute runs the root command with args against fresh flag and config state.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	viper.Reset()
	rootCmd.SilenceUsage = false
	resetFlags(rootCmd)
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
}

func presetDir(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "init.xml")
	require.NoError(t, os.WriteFile(path, []byte(testPreset), 0o644))
	return dir, path
}

func TestRoot_RequiresExactlyOneArgument(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}} {
		stdout, stderr, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, stderr, "accepts 1 arg(s)")
		// cobra prints usage to the output writer when one is set.
		assert.Contains(t, stdout+stderr, "Usage:")
	}
}

func TestRoot_Migrates(t *testing.T) {
	dir, path := presetDir(t)
	reportPath := filepath.Join(t.TempDir(), "report.yaml")

	stdout, _, err := execute(t, dir, "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "converted: init.xml (3 parameters)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `uid="osc1volume" val="0.0"`)
	assert.Contains(t, string(data), `uid="osc2volume" val="-inf"`)
	assert.Contains(t, string(data), `uid="filter1.cutoff" val="1000"`)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, yaml.Unmarshal(raw, &r))
	require.Len(t, r.Files, 1)
	assert.Equal(t, "converted", r.Files[0].Status)
	assert.Len(t, r.Files[0].Changes, 3)
}

func TestRoot_FloorAndDryRun(t *testing.T) {
	dir, path := presetDir(t)

	stdout, _, err := execute(t, dir, "--dry-run", "--floor-db=-40")
	require.NoError(t, err)
	assert.Contains(t, stdout, "planned: init.xml (3 parameters)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testPreset, string(data))

	_, _, err = execute(t, dir, "--floor-db=-40")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `uid="osc2volume" val="-40.0"`)
}

func TestRoot_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	stdout, stderr, err := execute(t, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
	assert.NotContains(t, stdout+stderr, "Usage:")
}

func TestRoot_InvalidValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xml")
	content := `<PRESET><PARAM uid="env1sustain" val="n/a"/></PRESET>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, _, err := execute(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env1sustain")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestJournalAndHistory(t *testing.T) {
	dir, path := presetDir(t)
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	_, _, err := execute(t, dir, "--journal", journalPath)
	require.NoError(t, err)

	stdout, _, err := execute(t, dir, "--journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped: init.xml (already migrated)")

	stdout, _, err = execute(t, "history", "--journal", journalPath)
	require.NoError(t, err)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Contains(t, stdout, abs)
	assert.Contains(t, stdout, "1 files")

	_, _, err = execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--journal is required")
}

func TestHistory_MissingJournal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "typo.db")

	_, _, err := execute(t, "history", "--journal", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "history must not create a journal")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "preset-migrate dev\n", stdout)
}
