package facets

import (
	"strings"

	"github.com/calltime/slate/pkg/core"
)

// TextStage is the client-side substring filter over scene-label and
// shot-type metadata. It is a separate, explicitly named stage from the
// backend's relevance match: it composes after the facet evaluator and never
// touches relevance scores. An empty needle is a pass-through.
type TextStage struct {
	Needle string `json:"needle,omitempty"`
}

// Matches reports whether the result's label metadata (or title, as labels
// are sparse on older records) contains the needle, case-insensitively.
func (s TextStage) Matches(r core.Result) bool {
	needle := strings.ToLower(strings.TrimSpace(s.Needle))
	if needle == "" {
		return true
	}
	for _, label := range r.Attrs.Labels {
		if strings.Contains(strings.ToLower(label), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Title), needle)
}

// Apply returns the subset of results matching the needle, preserving order.
func (s TextStage) Apply(results []core.Result) []core.Result {
	if strings.TrimSpace(s.Needle) == "" {
		return results
	}
	filtered := make([]core.Result, 0, len(results))
	for _, r := range results {
		if s.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
