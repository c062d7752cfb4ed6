// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package migrate runs the decibel migration over a directory of presets.
//
// Files are processed one at a time. The first error stops the run: files
// after the failing one are not touched, and the failing file is left as it
// was on disk because presets are only written after a complete rewrite.
// Implements: docs/ARCHITECTURE § Batch Migration.
package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/preset-migrate/internal/journal"
	"github.com/pdiddy/preset-migrate/internal/preset"
	"github.com/pdiddy/preset-migrate/internal/rewrite"
	"github.com/pdiddy/preset-migrate/pkg/types"
)

// Journal remembers which files a previous run already migrated.
// *journal.Journal implements it.
type Journal interface {
	Migrated(ctx context.Context, path, sum string) (bool, error)
	Record(ctx context.Context, e journal.Entry) error
}

// BatchResult holds the outcome of a directory run.
type BatchResult struct {
	Converted int
	Unchanged int
	Skipped   int
	Planned   int

	// Files lists every processed file in order, including the one that
	// failed, if any.
	Files []types.FileResult
}

// Total returns the number of files processed successfully.
func (r BatchResult) Total() int {
	return r.Converted + r.Unchanged + r.Skipped + r.Planned
}

// Migrator rewrites preset files.
type Migrator struct {
	cfg      types.MigrationConfig
	rewriter *rewrite.Rewriter
	journal  Journal
	log      *zap.Logger
}

// New returns a Migrator for cfg. j may be nil to run without a journal.
func New(cfg types.MigrationConfig, j Journal, log *zap.Logger) (*Migrator, error) {
	rw, err := rewrite.New(cfg.RewriteConfig)
	if err != nil {
		return nil, err
	}
	if cfg.Pattern == "" {
		cfg.Pattern = types.DefaultPattern
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{cfg: cfg, rewriter: rw, journal: j, log: log}, nil
}

// Discover returns the regular files directly inside dir whose names match
// pattern. Subdirectories are not searched. As in shell globbing, hidden
// files (editor lock files such as .pad.xml) match only a pattern that
// itself starts with a dot.
func Discover(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset directory %s: %w", dir, err)
	}

	hidden := strings.HasPrefix(pattern, ".")

	var paths []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") && !hidden {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// Stat follows symlinks, so a link to a preset counts as a file.
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// MigrateFile converts the preset at path. The file is written once, after
// every parameter has been converted, and only when something changed.
func (m *Migrator) MigrateFile(ctx context.Context, path string) (types.FileResult, error) {
	result := types.FileResult{Path: path, Status: types.FileFailed}

	doc, err := preset.Load(path, m.cfg.DocumentConfig)
	if err != nil {
		return result, err
	}
	result.SourceSHA256 = doc.SourceSHA256()

	key, err := filepath.Abs(path)
	if err != nil {
		return result, fmt.Errorf("resolving %s: %w", path, err)
	}

	if m.journal != nil {
		done, err := m.journal.Migrated(ctx, key, result.SourceSHA256)
		if err != nil {
			return result, fmt.Errorf("checking journal for %s: %w", path, err)
		}
		if done {
			m.log.Debug("already migrated", zap.String("path", path))
			result.Status = types.FileSkipped
			return result, nil
		}
	}

	changes, err := m.rewriter.Rewrite(doc)
	if err != nil {
		return result, fmt.Errorf("rewriting preset %s: %w", path, err)
	}
	result.Changes = changes

	for _, c := range changes {
		m.log.Debug("rewrote parameter",
			zap.String("path", path),
			zap.String("id", c.ID),
			zap.String("category", string(c.Category)),
			zap.String("old", c.Old),
			zap.String("new", c.New))
	}

	switch {
	case len(changes) == 0:
		result.Status = types.FileUnchanged
		return result, nil
	case m.cfg.DryRun:
		result.Status = types.FilePlanned
		return result, nil
	}

	data, err := doc.Bytes()
	if err != nil {
		return result, fmt.Errorf("%s: %w", path, err)
	}
	if err := preset.Save(path, data); err != nil {
		return result, err
	}
	result.Status = types.FileConverted
	result.ResultSHA256 = preset.Digest(data)

	if m.journal != nil {
		err := m.journal.Record(ctx, journal.Entry{
			Path:         key,
			SourceSHA256: result.SourceSHA256,
			ResultSHA256: result.ResultSHA256,
			Parameters:   len(changes),
		})
		if err != nil {
			return result, fmt.Errorf("journaling %s: %w", path, err)
		}
	}
	return result, nil
}

// MigrateDir converts every matching preset directly inside dir, printing
// one status line per file to w followed by a summary. It stops at the
// first error and returns it along with the results so far.
func (m *Migrator) MigrateDir(ctx context.Context, dir string, w io.Writer) (BatchResult, error) {
	var result BatchResult

	paths, err := Discover(dir, m.cfg.Pattern)
	if err != nil {
		return result, err
	}
	m.log.Info("migrating presets",
		zap.String("dir", dir),
		zap.String("pattern", m.cfg.Pattern),
		zap.Int("files", len(paths)),
		zap.Bool("dry_run", m.cfg.DryRun))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := filepath.Base(path)
		fr, err := m.MigrateFile(ctx, path)
		result.Files = append(result.Files, fr)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			m.log.Error("migration aborted", zap.String("path", path), zap.Error(err))
			return result, err
		}

		switch fr.Status {
		case types.FileConverted:
			fmt.Fprintf(w, "converted: %s (%d parameters)\n", name, len(fr.Changes))
			result.Converted++
		case types.FilePlanned:
			fmt.Fprintf(w, "planned: %s (%d parameters)\n", name, len(fr.Changes))
			result.Planned++
		case types.FileSkipped:
			fmt.Fprintf(w, "skipped: %s (already migrated)\n", name)
			result.Skipped++
		case types.FileUnchanged:
			fmt.Fprintf(w, "unchanged: %s\n", name)
			result.Unchanged++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d planned, %d unchanged, %d skipped (total: %d)\n",
		result.Converted, result.Planned, result.Unchanged, result.Skipped, result.Total())
	return result, nil
}
