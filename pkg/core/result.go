package core

import (
	"time"
)

// Kind identifies the record type a search hit came from. The backend is free
// to return new kinds at any time; anything we do not recognize maps to
// KindUnknown and is kept rather than dropped.
type Kind string

const (
	KindProject   Kind = "project"
	KindAsset     Kind = "asset"
	KindComment   Kind = "comment"
	KindMessage   Kind = "message"
	KindCallsheet Kind = "callsheet"
	KindBrief     Kind = "brief"
	KindTask      Kind = "task"
	KindUnknown   Kind = "unknown"

	// KindAll is a filter sentinel, never stored on a result.
	KindAll Kind = "all"
)

// ParseKind maps a raw type string to a Kind, falling back to KindUnknown.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindProject, KindAsset, KindComment, KindMessage, KindCallsheet, KindBrief, KindTask:
		return Kind(s)
	}
	return KindUnknown
}

// Priority returns the fixed tie-break priority for a kind. Lower sorts
// first when relevance scores are equal.
func (k Kind) Priority() int {
	switch k {
	case KindProject:
		return 0
	case KindAsset:
		return 1
	case KindBrief:
		return 2
	case KindCallsheet:
		return 3
	case KindTask:
		return 4
	case KindComment:
		return 5
	case KindMessage:
		return 6
	}
	return 99
}

// KindDisplay holds presentation metadata for a kind. Pure lookup data, no
// behavior.
type KindDisplay struct {
	Icon  string
	Label string
}

var kindDisplays = map[Kind]KindDisplay{
	KindProject:   {Icon: "🎬", Label: "Project"},
	KindAsset:     {Icon: "🎞️", Label: "Asset"},
	KindComment:   {Icon: "💬", Label: "Comment"},
	KindMessage:   {Icon: "✉️", Label: "Message"},
	KindCallsheet: {Icon: "📋", Label: "Call Sheet"},
	KindBrief:     {Icon: "📝", Label: "Brief"},
	KindTask:      {Icon: "✅", Label: "Task"},
}

var unknownDisplay = KindDisplay{Icon: "📄", Label: "Item"}

// Display returns presentation metadata for the kind, with a generic fallback
// for unknown kinds.
func (k Kind) Display() KindDisplay {
	if d, ok := kindDisplays[k]; ok {
		return d
	}
	return unknownDisplay
}

// AssetAttrs carries the asset-specific attributes the facet evaluator
// matches against. Non-asset results leave it zero-valued.
type AssetAttrs struct {
	// AssetType is the media category, e.g. "video", "audio", "image".
	AssetType string `json:"asset_type,omitempty"`

	// Resolution is the display resolution label, e.g. "1080p", "4K".
	Resolution string `json:"resolution,omitempty"`

	// FrameRate is the frame rate label, e.g. "24", "29.97", "60".
	FrameRate string `json:"frame_rate,omitempty"`

	// Codec is the encoding, e.g. "h264", "prores".
	Codec string `json:"codec,omitempty"`

	// DurationSeconds is the media duration; 0 when not applicable.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	// FileSizeBytes is the stored size; 0 when not applicable.
	FileSizeBytes int64 `json:"file_size_bytes,omitempty"`

	// HasTranscript is nil when the backend did not say either way. The
	// tri-state transcript facet only matches explicit true/false values.
	HasTranscript *bool `json:"has_transcript,omitempty"`

	// Labels holds free-text scene/shot metadata (detected scene labels,
	// shot types) searched by the client-side text stage.
	Labels []string `json:"labels,omitempty"`
}

// Result is the normalized search record every backend payload is coerced
// into. Relevance is assigned by the backend and never recomputed here:
// downstream stages only remove or reorder results.
type Result struct {
	Kind        Kind       `json:"type"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	ProjectName string     `json:"project_name,omitempty"`
	Relevance   float64    `json:"relevance"`
	Highlights  []string   `json:"highlights,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Attrs       AssetAttrs `json:"attrs,omitempty"`
}
