// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the preset migration:
// parameter records read from preset documents, the changes applied to them,
// per-file outcomes, and configuration.
// Implements: docs/ARCHITECTURE § Rewrite, § Batch Migration.
package types

// Category classifies a parameter by its identifier.
type Category string

const (
	CategoryUnclassified     Category = "unclassified"
	CategoryOscillatorVolume Category = "oscillator-volume"
	CategoryEnvelopeSustain  Category = "envelope-sustain"
)

// Parameter is one element of a preset document that carries a unique
// identifier attribute.
type Parameter struct {
	// ID is the value of the identifier attribute (e.g. "osc1volume"). Never empty.
	ID string `json:"id" yaml:"id"`

	// Value is the raw value attribute. It is empty when the attribute is
	// absent or empty; both cases are skipped by the rewriter.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Change records one rewritten parameter value.
type Change struct {
	// Index is the parameter's position in document order.
	Index    int      `json:"index" yaml:"index"`
	ID       string   `json:"id" yaml:"id"`
	Category Category `json:"category" yaml:"category"`
	Old      string   `json:"old" yaml:"old"`
	New      string   `json:"new" yaml:"new"`
}

// FileStatus indicates what happened to a preset file during a run.
type FileStatus string

const (
	FileConverted FileStatus = "converted"
	FileUnchanged FileStatus = "unchanged"
	FileSkipped   FileStatus = "skipped"
	FilePlanned   FileStatus = "planned"
	FileFailed    FileStatus = "failed"
)

// FileResult holds the outcome of migrating one preset file.
type FileResult struct {
	Path    string     `json:"path" yaml:"path"`
	Status  FileStatus `json:"status" yaml:"status"`
	Changes []Change   `json:"changes,omitempty" yaml:"changes,omitempty"`

	// SourceSHA256 and ResultSHA256 are hex digests of the file before and
	// after the rewrite. ResultSHA256 is empty when nothing was written.
	SourceSHA256 string `json:"source_sha256,omitempty" yaml:"source_sha256,omitempty"`
	ResultSHA256 string `json:"result_sha256,omitempty" yaml:"result_sha256,omitempty"`
}
