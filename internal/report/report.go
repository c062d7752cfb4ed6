// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a YAML summary of a migration run: every file that
// was looked at, its outcome, and the parameter values that changed.
// Implements: docs/ARCHITECTURE § Report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/preset-migrate/pkg/types"
)

// Report is the top-level YAML document.
type Report struct {
	GeneratedAt time.Time    `yaml:"generated_at"`
	Directory   string       `yaml:"directory"`
	DryRun      bool         `yaml:"dry_run,omitempty"`
	Files       []FileReport `yaml:"files"`
}

// FileReport holds one file's outcome.
type FileReport struct {
	Path    string         `yaml:"path"`
	Status  string         `yaml:"status"`
	Changes []ChangeReport `yaml:"changes,omitempty"`
}

// ChangeReport holds one rewritten parameter.
type ChangeReport struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Old      string `yaml:"old"`
	New      string `yaml:"new"`
}

// New builds a report for a run over dir.
func New(dir string, dryRun bool, files []types.FileResult) Report {
	r := Report{
		GeneratedAt: time.Now().UTC(),
		Directory:   dir,
		DryRun:      dryRun,
		Files:       make([]FileReport, len(files)),
	}
	for i, f := range files {
		fr := FileReport{Path: f.Path, Status: string(f.Status)}
		for _, c := range f.Changes {
			fr.Changes = append(fr.Changes, ChangeReport{
				ID:       c.ID,
				Category: string(c.Category),
				Old:      c.Old,
				New:      c.New,
			})
		}
		r.Files[i] = fr
	}
	return r
}

// Counts returns the number of files per status.
func (r Report) Counts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		counts[f.Status]++
	}
	return counts
}

// Write marshals r to path, creating the parent directory if needed. Like
// presets, the report is replaced in one rename, never left half written.
func Write(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
