// Package rank implements the ordering stage: results arrive pre-ranked by
// backend relevance and are only reordered or subset here, never re-scored.
package rank

import (
	"sort"

	"github.com/calltime/slate/pkg/core"
)

// Order sorts results by relevance descending, breaking ties with the fixed
// kind priority. The sort is stable so equally-ranked results of the same
// kind keep their backend order. The input slice is returned sorted in place.
func Order(results []core.Result) []core.Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Kind.Priority() < results[j].Kind.Priority()
	})
	return results
}

// SubsetByKind returns the results of a single kind, preserving relative
// order. The type-filter tabs never re-rank; they subset the already-ordered
// list. KindAll returns the input unchanged.
func SubsetByKind(results []core.Result, kind core.Kind) []core.Result {
	if kind == core.KindAll || kind == "" {
		return results
	}
	subset := make([]core.Result, 0, len(results))
	for _, r := range results {
		if r.Kind == kind {
			subset = append(subset, r)
		}
	}
	return subset
}

// CountByKind tallies results per kind for tab badges.
func CountByKind(results []core.Result) map[core.Kind]int {
	counts := make(map[core.Kind]int, len(results))
	for _, r := range results {
		counts[r.Kind]++
	}
	return counts
}

// Cursor tracks the keyboard-navigation position over the currently
// filtered and ordered list. Movement clamps at the bounds; it never cycles
// past the first or last item.
type Cursor struct {
	pos  int
	size int
}

// NewCursor creates a cursor over a list of the given size, positioned on
// the first item.
func NewCursor(size int) *Cursor {
	if size < 0 {
		size = 0
	}
	return &Cursor{size: size}
}

// Reset points the cursor at the first item of a (possibly resized) list.
// Selecting a filter tab resets the cursor through this.
func (c *Cursor) Reset(size int) {
	if size < 0 {
		size = 0
	}
	c.size = size
	c.pos = 0
}

// Next moves down one item, clamping at the end of the list.
func (c *Cursor) Next() int {
	if c.pos < c.size-1 {
		c.pos++
	}
	return c.pos
}

// Prev moves up one item, clamping at the start of the list.
func (c *Cursor) Prev() int {
	if c.pos > 0 {
		c.pos--
	}
	return c.pos
}

// Size returns the length of the list the cursor ranges over.
func (c *Cursor) Size() int {
	return c.size
}

// Pos returns the current position, or -1 when the list is empty.
func (c *Cursor) Pos() int {
	if c.size == 0 {
		return -1
	}
	return c.pos
}
