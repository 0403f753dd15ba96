package api

import (
	"time"

	"github.com/calltime/slate/pkg/saved"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ListSavedSearchesResponse struct {
	SavedSearches []*saved.SavedSearch `json:"saved_searches"`
	Count         int                  `json:"count"`
}

// CreateSavedSearchRequest is the POST /api/saved payload. Identity fields
// identify the creator; filters travel as a raw JSON document.
type CreateSavedSearchRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Query          string `json:"query"`
	Filters        string `json:"filters,omitempty"`
	Scope          string `json:"scope,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	Visibility     string `json:"visibility,omitempty"`
	IsPinned       bool   `json:"is_pinned,omitempty"`
	CreatedBy      string `json:"created_by,omitempty"`
	CreatedByEmail string `json:"created_by_email,omitempty"`
	Organization   string `json:"organization,omitempty"`
}

// LoadSavedSearchResponse restores a saved search: the query plus decoded
// filters, ready to re-run.
type LoadSavedSearchResponse struct {
	SavedSearch *saved.SavedSearch `json:"saved_search"`
	Query       string             `json:"query"`
	Filters     interface{}        `json:"filters"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
