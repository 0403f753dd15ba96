package core

import (
	"encoding/json"
	"time"

	"github.com/calltime/slate/pkg/log"
)

var normLogger = log.ForComponent("normalize")

// rawResult mirrors the backend's wire shape. Every field is optional; the
// backend contract is semantic, not byte-level.
type rawResult struct {
	Type        string          `json:"type"`
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName"`
	Relevance   float64         `json:"relevance"`
	Highlights  []string        `json:"highlights"`
	CreatedAt   string          `json:"createdAt"`
	Attrs       json.RawMessage `json:"attrs"`

	// Asset attributes sometimes arrive flattened on the record itself.
	AssetType       string   `json:"assetType"`
	Resolution      string   `json:"resolution"`
	FrameRate       string   `json:"frameRate"`
	Codec           string   `json:"codec"`
	DurationSeconds float64  `json:"durationSeconds"`
	FileSizeBytes   int64    `json:"fileSizeBytes"`
	HasTranscript   *bool    `json:"hasTranscript"`
	Labels          []string `json:"labels"`
}

// Normalize coerces a heterogeneous backend payload into []Result.
//
// Accepted payload shapes:
//   - []Result (returned as-is)
//   - []byte / json.RawMessage holding a JSON array
//   - string holding JSON (the backend sometimes double-encodes)
//   - any value that marshals to a JSON array of result objects
//
// Anything that cannot be decoded as an array of records becomes an empty
// slice; Normalize never returns an error. Records with an unrecognized type
// are kept under KindUnknown, records without an id are dropped.
func Normalize(payload any) []Result {
	switch v := payload.(type) {
	case nil:
		return []Result{}
	case []Result:
		if v == nil {
			return []Result{}
		}
		return v
	case json.RawMessage:
		return decodeArray([]byte(v))
	case []byte:
		return decodeArray(v)
	case string:
		return decodeArray([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			normLogger.Warnf("unmarshalable payload %T: %v", payload, err)
			return []Result{}
		}
		return decodeArray(data)
	}
}

func decodeArray(data []byte) []Result {
	var raws []rawResult
	if err := json.Unmarshal(data, &raws); err != nil {
		// Double-encoded payloads arrive as a JSON string containing the
		// actual array. Try one unwrap before giving up.
		var inner string
		if err2 := json.Unmarshal(data, &inner); err2 == nil {
			if err3 := json.Unmarshal([]byte(inner), &raws); err3 == nil {
				return convert(raws)
			}
		}
		normLogger.Warnf("discarding undecodable search payload: %v", err)
		return []Result{}
	}
	return convert(raws)
}

func convert(raws []rawResult) []Result {
	results := make([]Result, 0, len(raws))
	for _, r := range raws {
		if r.ID == "" {
			continue
		}
		res := Result{
			Kind:        ParseKind(r.Type),
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			ProjectID:   r.ProjectID,
			ProjectName: r.ProjectName,
			Relevance:   clampRelevance(r.Relevance),
			Highlights:  r.Highlights,
			Attrs: AssetAttrs{
				AssetType:       r.AssetType,
				Resolution:      r.Resolution,
				FrameRate:       r.FrameRate,
				Codec:           r.Codec,
				DurationSeconds: r.DurationSeconds,
				FileSizeBytes:   r.FileSizeBytes,
				HasTranscript:   r.HasTranscript,
				Labels:          r.Labels,
			},
		}
		if len(r.Attrs) > 0 {
			var attrs AssetAttrs
			if err := json.Unmarshal(r.Attrs, &attrs); err == nil {
				res.Attrs = attrs
			}
		}
		if r.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
				res.CreatedAt = ts
			}
		}
		results = append(results, res)
	}
	return results
}

// clampRelevance keeps backend scores inside [0,1] without re-scoring: values
// outside the contract range are pinned to the nearest bound.
func clampRelevance(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
