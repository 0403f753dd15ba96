// Package facets implements the client-side facet filter evaluator: boolean
// predicates applied over an already-ranked result set. Categories combine
// with AND semantics; the selected values inside a multi-select category
// combine with OR. An unset category imposes no constraint.
package facets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/calltime/slate/pkg/core"
)

// TriState is a three-valued flag facet: require-true, require-false, or no
// constraint. The zero value is Unset.
type TriState int

const (
	Unset TriState = iota
	RequireTrue
	RequireFalse
)

func (t TriState) String() string {
	switch t {
	case RequireTrue:
		return "true"
	case RequireFalse:
		return "false"
	}
	return "unset"
}

// ParseTriState maps "true"/"false" to the matching constraint; anything
// else (including "") means no constraint.
func ParseTriState(s string) TriState {
	switch s {
	case "true":
		return RequireTrue
	case "false":
		return RequireFalse
	}
	return Unset
}

// MarshalJSON encodes Unset as null so a default config serializes to a
// payload that decodes back to the default.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case RequireTrue:
		return []byte("true"), nil
	case RequireFalse:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*t = RequireTrue
	case "false":
		*t = RequireFalse
	case "null":
		*t = Unset
	default:
		return fmt.Errorf("invalid tri-state value %q", data)
	}
	return nil
}

// DateRange is an inclusive timestamp window. A nil boundary leaves that
// side unconstrained.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (r DateRange) active() bool {
	return r.Start != nil || r.End != nil
}

func (r DateRange) contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// FloatRange is an inclusive numeric window with optional bounds.
type FloatRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r FloatRange) active() bool {
	return r.Min != nil || r.Max != nil
}

func (r FloatRange) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// IntRange is an inclusive integer window with optional bounds.
type IntRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

func (r IntRange) active() bool {
	return r.Min != nil || r.Max != nil
}

func (r IntRange) contains(v int64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Filters is the full facet configuration. The zero value is the default
// configuration: every category unset, every result passes.
type Filters struct {
	// Multi-select categories. Empty or nil means "not applied", never
	// "nothing matches".
	AssetTypes  []string `json:"asset_types,omitempty"`
	Resolutions []string `json:"resolutions,omitempty"`
	FrameRates  []string `json:"frame_rates,omitempty"`
	Codecs      []string `json:"codecs,omitempty"`

	Dates         DateRange  `json:"dates,omitempty"`
	HasTranscript TriState   `json:"has_transcript,omitempty"`
	Duration      FloatRange `json:"duration,omitempty"`
	FileSize      IntRange   `json:"file_size,omitempty"`
}

// matchesAny reports whether value is one of the selections. An empty
// selection set is handled by the caller (category not applied).
func matchesAny(value string, selections []string) bool {
	for _, s := range selections {
		if value == s {
			return true
		}
	}
	return false
}

// Matches reports whether a single result passes every active category.
func (f Filters) Matches(r core.Result) bool {
	if len(f.AssetTypes) > 0 && !matchesAny(r.Attrs.AssetType, f.AssetTypes) {
		return false
	}
	if len(f.Resolutions) > 0 && !matchesAny(r.Attrs.Resolution, f.Resolutions) {
		return false
	}
	if len(f.FrameRates) > 0 && !matchesAny(r.Attrs.FrameRate, f.FrameRates) {
		return false
	}
	if len(f.Codecs) > 0 && !matchesAny(r.Attrs.Codec, f.Codecs) {
		return false
	}
	if f.Dates.active() && !f.Dates.contains(r.CreatedAt) {
		return false
	}
	switch f.HasTranscript {
	case RequireTrue:
		if r.Attrs.HasTranscript == nil || !*r.Attrs.HasTranscript {
			return false
		}
	case RequireFalse:
		if r.Attrs.HasTranscript == nil || *r.Attrs.HasTranscript {
			return false
		}
	}
	if f.Duration.active() && !f.Duration.contains(r.Attrs.DurationSeconds) {
		return false
	}
	if f.FileSize.active() && !f.FileSize.contains(r.Attrs.FileSizeBytes) {
		return false
	}
	return true
}

// Apply returns the subset of results passing every active category,
// preserving input order. With a zero-value config the input is returned
// unchanged (identity), so an accidental empty selection can never wipe the
// result set.
func (f Filters) Apply(results []core.Result) []core.Result {
	if f.ActiveCount() == 0 {
		return results
	}
	filtered := make([]core.Result, 0, len(results))
	for _, r := range results {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ActiveCount counts the categories that impose a constraint. It is a pure
// function of the configuration; callers recompute it whenever the
// configuration changes rather than caching it.
func (f Filters) ActiveCount() int {
	count := 0
	if len(f.AssetTypes) > 0 {
		count++
	}
	if len(f.Resolutions) > 0 {
		count++
	}
	if len(f.FrameRates) > 0 {
		count++
	}
	if len(f.Codecs) > 0 {
		count++
	}
	if f.Dates.active() {
		count++
	}
	if f.HasTranscript != Unset {
		count++
	}
	if f.Duration.active() {
		count++
	}
	if f.FileSize.active() {
		count++
	}
	return count
}

// Encode serializes the configuration for persistence (saved searches).
func (f Filters) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding filters: %w", err)
	}
	return data, nil
}

// Decode deserializes a persisted configuration. On malformed input it
// returns the default configuration together with the error; callers log and
// continue, they never crash a restore over a bad stored payload.
func Decode(data []byte) (Filters, error) {
	if len(data) == 0 {
		return Filters{}, nil
	}
	var f Filters
	if err := json.Unmarshal(data, &f); err != nil {
		return Filters{}, fmt.Errorf("decoding filters: %w", err)
	}
	return f, nil
}
