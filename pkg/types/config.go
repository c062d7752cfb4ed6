// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

const (
	DefaultIdentifierAttr   = "uid"
	DefaultValueAttr        = "val"
	DefaultPattern          = "*.xml"
	DefaultOscillatorPrefix = "osc"
	DefaultVolumeMarker     = "volume"
	DefaultEnvelopePrefix   = "env"
	DefaultSustainMarker    = "sustain"
)

// RuleConfig holds the identifier markers used to classify parameters.
// An identifier is an oscillator volume when it starts with OscillatorPrefix
// and contains VolumeMarker; likewise for envelope sustain.
type RuleConfig struct {
	OscillatorPrefix string `json:"oscillator_prefix" yaml:"oscillator_prefix"`
	VolumeMarker     string `json:"volume_marker" yaml:"volume_marker"`
	EnvelopePrefix   string `json:"envelope_prefix" yaml:"envelope_prefix"`
	SustainMarker    string `json:"sustain_marker" yaml:"sustain_marker"`
}

// RewriteConfig holds settings for the value rewriter.
type RewriteConfig struct {
	Rules RuleConfig `json:"rules" yaml:"rules"`

	// FloorDB, when set, clamps converted values below it (including the
	// negative infinity produced by a zero value) to the floor. Nil keeps
	// the raw result of the formula.
	FloorDB *float64 `json:"floor_db,omitempty" yaml:"floor_db,omitempty"`
}

// DocumentConfig names the attributes read from preset elements.
type DocumentConfig struct {
	// IdentifierAttr is the unique identifier attribute (default "uid").
	IdentifierAttr string `json:"identifier_attr" yaml:"identifier_attr"`

	// ValueAttr is the numeric value attribute (default "val").
	ValueAttr string `json:"value_attr" yaml:"value_attr"`
}

// MigrationConfig groups the settings for a migration run.
type MigrationConfig struct {
	RewriteConfig  `yaml:",inline"`
	DocumentConfig `yaml:",inline"`

	// Pattern is the glob matched against file names directly inside the
	// preset directory (default "*.xml").
	Pattern string `json:"pattern" yaml:"pattern"`

	// DryRun computes changes without writing any file.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// DefaultRuleConfig returns the markers used by the synthesizer's parameter names.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		OscillatorPrefix: DefaultOscillatorPrefix,
		VolumeMarker:     DefaultVolumeMarker,
		EnvelopePrefix:   DefaultEnvelopePrefix,
		SustainMarker:    DefaultSustainMarker,
	}
}

// DefaultDocumentConfig returns the attribute names used by preset files.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		IdentifierAttr: DefaultIdentifierAttr,
		ValueAttr:      DefaultValueAttr,
	}
}

// DefaultMigrationConfig returns the stock preset layout: uid/val
// attributes, *.xml files, no floor.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		RewriteConfig:  RewriteConfig{Rules: DefaultRuleConfig()},
		DocumentConfig: DefaultDocumentConfig(),
		Pattern:        DefaultPattern,
	}
}
