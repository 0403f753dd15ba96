// Package saved implements saved searches: named, persisted combinations of
// a query string and facet filters, scoped to an organization or a project.
package saved

import (
	"context"
	"errors"
	"time"
)

// Visibility controls who can see a saved search.
type Visibility string

const (
	// VisibilityPrivate saved searches are visible to their creator only.
	VisibilityPrivate Visibility = "private"

	// VisibilityOrganization saved searches are visible to everyone in the
	// creator's organization.
	VisibilityOrganization Visibility = "organization"
)

// Scope is where a saved search applies.
type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeProject      Scope = "project"
)

// SavedSearch is the persisted form. FiltersJSON holds the facet filters as
// a JSON document; it is decoded on load, never on list, so a corrupted
// document cannot break listings.
type SavedSearch struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Query          string     `json:"query"`
	FiltersJSON    string     `json:"filters"`
	Scope          Scope      `json:"scope"`
	ProjectID      string     `json:"projectId,omitempty"`
	Visibility     Visibility `json:"visibility"`
	IsPinned       bool       `json:"isPinned"`
	UsageCount     int64      `json:"usageCount"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	CreatedByEmail string     `json:"createdByEmail,omitempty"`
	Organization   string     `json:"organization,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Identity is the caller on whose behalf saved searches are listed and
// created.
type Identity struct {
	User         string
	Email        string
	Organization string
}

// VisibleTo reports whether ident may see this saved search: organization
// visibility within the same organization, or ownership.
func (s *SavedSearch) VisibleTo(ident Identity) bool {
	if s.CreatedBy != "" && s.CreatedBy == ident.User {
		return true
	}
	return s.Visibility == VisibilityOrganization && s.Organization == ident.Organization
}

var (
	// ErrBlankName rejects names that are empty after trimming whitespace.
	ErrBlankName = errors.New("saved search name cannot be blank")

	// ErrNotFound is returned when no saved search has the requested ID.
	ErrNotFound = errors.New("saved search not found")

	// ErrDeclined is returned when a delete confirmation is refused.
	ErrDeclined = errors.New("delete not confirmed")
)

// Store persists saved searches.
type Store interface {
	CreateSavedSearch(ctx context.Context, s *SavedSearch) error
	GetSavedSearch(ctx context.Context, id string) (*SavedSearch, error)
	ListSavedSearches(ctx context.Context) ([]*SavedSearch, error)
	RecordSavedSearchUse(ctx context.Context, id string, at time.Time) error
	DeleteSavedSearch(ctx context.Context, id string) error
}
