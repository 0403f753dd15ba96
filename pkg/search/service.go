package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/facets"
	"github.com/calltime/slate/pkg/rank"
)

// overfetch multiplies the requested limit when post-search stages may
// remove results, so filtering does not starve the page.
const overfetch = 4

// Params configures one search operation.
type Params struct {
	// Query is the full-text search term. Empty returns recent records.
	Query string

	// Kind restricts results to one record kind. KindAll (or empty)
	// keeps every kind.
	Kind core.Kind

	// Filters are the facet filters applied after the full-text stage.
	Filters facets.Filters

	// Label is the free-text attribute match applied after the facet
	// stage. It is independent of Query and never rescores results.
	Label string

	// Limit is the maximum number of results returned. Defaults to 30.
	Limit int
}

// Results is the outcome of a search. Counts reflects the per-kind totals
// after filtering but before the kind restriction, so tab badges stay
// accurate while a single tab is selected.
type Results struct {
	Query   string            `json:"query"`
	Results []core.Result     `json:"results"`
	Counts  map[core.Kind]int `json:"counts"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
}

// Searcher is the storage dependency: a scored full-text search.
type Searcher interface {
	SearchRecords(ctx context.Context, query string, limit int) ([]core.Result, error)
}

// Service executes the staged search pipeline.
type Service struct {
	store Searcher
}

func NewService(store Searcher) *Service {
	return &Service{store: store}
}

// Search runs the pipeline: full-text query, facet filters, label match,
// ranking, kind restriction, limit.
func (s *Service) Search(ctx context.Context, params Params) (*Results, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 30
	}

	fetchLimit := limit
	if params.Filters.ActiveCount() > 0 || params.Label != "" || restricting(params.Kind) {
		fetchLimit = limit * overfetch
	}

	results, err := s.store.SearchRecords(ctx, params.Query, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}

	results = params.Filters.Apply(results)
	results = (facets.TextStage{Needle: params.Label}).Apply(results)
	rank.Order(results)

	counts := rank.CountByKind(results)
	results = rank.SubsetByKind(results, params.Kind)
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []core.Result{}
	}

	return &Results{
		Query:   params.Query,
		Results: results,
		Counts:  counts,
		Total:   len(results),
		Limit:   limit,
	}, nil
}

func restricting(k core.Kind) bool {
	return k != "" && k != core.KindAll
}

// ParseParams parses HTTP query parameters into Params.
//
// Supported parameters:
//   - q: full-text query
//   - kind: record kind tab ("all" or empty keeps everything)
//   - asset_type, resolution, frame_rate, codec: multi-valued facet selections
//   - start_date, end_date: YYYY-MM-DD creation date range, end inclusive
//   - transcript: "true" or "false"; absent leaves the facet unset
//   - min_duration, max_duration: seconds
//   - min_size, max_size: bytes
//   - label: free-text attribute match
//   - limit: positive integer, defaults to 30
//
// Invalid dates and numbers return an error; the caller decides whether to
// reject the request or fall back to defaults.
func ParseParams(queryParams map[string][]string) (Params, error) {
	params := Params{Limit: 30, Kind: core.KindAll}

	first := func(key string) string {
		if v := queryParams[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	params.Query = first("q")
	params.Label = first("label")

	if kind := first("kind"); kind != "" && kind != "all" {
		params.Kind = core.ParseKind(kind)
	}

	if limitStr := first("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			params.Limit = parsed
		}
	}

	params.Filters.AssetTypes = queryParams["asset_type"]
	params.Filters.Resolutions = queryParams["resolution"]
	params.Filters.FrameRates = queryParams["frame_rate"]
	params.Filters.Codecs = queryParams["codec"]

	if startStr := first("start_date"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return params, fmt.Errorf("invalid start_date: %w", err)
		}
		params.Filters.Dates.Start = &parsed
	}
	if endStr := first("end_date"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return params, fmt.Errorf("invalid end_date: %w", err)
		}
		endOfDay := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
		params.Filters.Dates.End = &endOfDay
	}

	switch first("transcript") {
	case "":
	case "true":
		params.Filters.HasTranscript = facets.RequireTrue
	case "false":
		params.Filters.HasTranscript = facets.RequireFalse
	default:
		return params, fmt.Errorf("invalid transcript value %q", first("transcript"))
	}

	if v := first("min_duration"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid min_duration: %w", err)
		}
		params.Filters.Duration.Min = &parsed
	}
	if v := first("max_duration"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid max_duration: %w", err)
		}
		params.Filters.Duration.Max = &parsed
	}
	if v := first("min_size"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("invalid min_size: %w", err)
		}
		params.Filters.FileSize.Min = &parsed
	}
	if v := first("max_size"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("invalid max_size: %w", err)
		}
		params.Filters.FileSize.Max = &parsed
	}

	return params, nil
}
