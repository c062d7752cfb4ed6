//go:build mage

// Package main contains Mage build targets for preset-migrate developer tooling.
// Implements: docs/ARCHITECTURE § Developer Tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binName   = "preset-migrate"
	cmdPkg    = "./cmd/preset-migrate"
	sampleDir = "sample-presets"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// samplePresets are linear-scale presets for trying the migration by hand.
var samplePresets = map[string]string{
	"init.xml": `<?xml version="1.0" encoding="UTF-8"?>
<PRESET name="Init">
  <PARAM uid="osc1volume" val="1.0"/>
  <PARAM uid="osc2volume" val="0.5"/>
  <PARAM uid="osc3volume" val="0.35"/>
  <PARAM uid="osc4volume" val="0.2"/>
  <PARAM uid="env1sustain" val="50"/>
  <PARAM uid="env2sustain" val="100"/>
  <PARAM uid="osc1coarse" val="1.0"/>
</PRESET>
`,
	"silent.xml": `<?xml version="1.0" encoding="UTF-8"?>
<PRESET name="Silent">
  <PARAM uid="osc1volume" val="0"/>
  <PARAM uid="env1sustain" val="0"/>
</PRESET>
`,
}

// Sample writes linear-scale presets into sample-presets/ and migrates a
// dry run over them.
func Sample() error {
	mg.Deps(Build)

	if err := os.MkdirAll(sampleDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", sampleDir, err)
	}
	for name, content := range samplePresets {
		path := filepath.Join(sampleDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	return sh.RunV(filepath.Join(binDir, binName), "--dry-run", sampleDir)
}

// Stats prints project metrics: Go production/test LOC and Markdown word count.
func Stats() error {
	var prod, test, words int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Underscore and dot directories are not part of the module.
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go":
			n, err := countLines(path)
			if err != nil {
				return err
			}
			if strings.HasSuffix(path, "_test.go") {
				test += n
			} else {
				prod += n
			}
		case ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			words += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// countLines returns the number of non-blank lines in the file at path.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}
