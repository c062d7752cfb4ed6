// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite converts linear preset values to decibels.
//
// The rewriter works on typed parameter records and knows nothing about XML
// or the filesystem; internal/preset adapts a parsed document to the
// Document interface.
// Implements: docs/ARCHITECTURE § Rewrite.
package rewrite

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/preset-migrate/pkg/types"
)

// ErrInvalidValue is returned when a classified parameter has a value that
// does not parse as a number.
var ErrInvalidValue = errors.New("invalid parameter value")

// Document is a preset whose parameters can be read and rewritten in place.
type Document interface {
	// Parameters returns every element carrying an identifier, in document order.
	Parameters() []types.Parameter

	// SetValue overwrites the value of the i-th parameter.
	SetValue(i int, value string)
}

// Rewriter classifies parameters and converts their values.
type Rewriter struct {
	rules   types.RuleConfig
	floorDB *float64
}

// New returns a Rewriter for cfg. Every marker must be non-empty.
func New(cfg types.RewriteConfig) (*Rewriter, error) {
	r := cfg.Rules
	for name, v := range map[string]string{
		"oscillator prefix": r.OscillatorPrefix,
		"volume marker":     r.VolumeMarker,
		"envelope prefix":   r.EnvelopePrefix,
		"sustain marker":    r.SustainMarker,
	} {
		if v == "" {
			return nil, fmt.Errorf("rewrite rules: %s must not be empty", name)
		}
	}
	return &Rewriter{rules: r, floorDB: cfg.FloorDB}, nil
}

// Classify reports which conversion, if any, applies to the identifier.
func (r *Rewriter) Classify(id string) types.Category {
	switch {
	case strings.HasPrefix(id, r.rules.OscillatorPrefix) && strings.Contains(id, r.rules.VolumeMarker):
		return types.CategoryOscillatorVolume
	case strings.HasPrefix(id, r.rules.EnvelopePrefix) && strings.Contains(id, r.rules.SustainMarker):
		return types.CategoryEnvelopeSustain
	default:
		return types.CategoryUnclassified
	}
}

// Rewrite converts every classified parameter of doc in place and returns
// the applied changes in document order.
//
// Empty values and negative values are left alone. A value that is not a
// number aborts the rewrite with ErrInvalidValue; in that case doc is not
// modified at all.
func (r *Rewriter) Rewrite(doc Document) ([]types.Change, error) {
	var changes []types.Change
	for i, p := range doc.Parameters() {
		cat := r.Classify(p.ID)
		if cat == types.CategoryUnclassified || p.Value == "" {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s value %q: %v", ErrInvalidValue, p.ID, p.Value, err)
		}
		// NaN fails this comparison too.
		if !(v >= 0) {
			continue
		}

		changes = append(changes, types.Change{
			Index:    i,
			ID:       p.ID,
			Category: cat,
			Old:      p.Value,
			New:      FormatValue(r.convert(cat, v)),
		})
	}

	for _, c := range changes {
		doc.SetValue(c.Index, c.New)
	}
	return changes, nil
}

func (r *Rewriter) convert(cat types.Category, v float64) float64 {
	db := ToDecibels(cat, v)
	if r.floorDB != nil && db < *r.floorDB {
		return *r.floorDB
	}
	return db
}

// ToDecibels applies the category's linear-to-decibel transform. Oscillator
// volume is an amplitude ratio; envelope sustain is a 0-100 percentage.
// Unclassified values are returned unchanged.
func ToDecibels(cat types.Category, v float64) float64 {
	switch cat {
	case types.CategoryOscillatorVolume:
		return 20 * math.Log10(v)
	case types.CategoryEnvelopeSustain:
		return 20 * math.Log10(v/100.0)
	default:
		return v
	}
}

// FormatValue renders v the way preset files store floats: the shortest
// decimal that round-trips, with ".0" appended to integral values.
// Infinities are written as "inf" and "-inf".
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsNaN(v):
		return "nan"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
