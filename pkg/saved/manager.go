package saved

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calltime/slate/pkg/facets"
	"github.com/calltime/slate/pkg/log"
)

// Manager implements the saved-search operations on top of a Store.
type Manager struct {
	store  Store
	logger *log.Logger
	bumps  sync.WaitGroup
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: log.ForComponent("saved"),
	}
}

// Save validates and persists a saved search. Validation happens before the
// store is touched: a blank name never reaches persistence. A missing ID gets
// a generated one, missing timestamps are filled in.
func (m *Manager) Save(ctx context.Context, s *SavedSearch) error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrBlankName
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Visibility == "" {
		s.Visibility = VisibilityPrivate
	}
	if s.Scope == "" {
		s.Scope = ScopeOrganization
	}
	if s.FiltersJSON == "" {
		s.FiltersJSON = "{}"
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	if err := m.store.CreateSavedSearch(ctx, s); err != nil {
		return fmt.Errorf("persisting saved search: %w", err)
	}
	m.logger.Debugf("saved search %s (%q)", s.ID, s.Name)
	return nil
}

// Get fetches a saved search without touching its usage bookkeeping. Only
// Load bumps the counter.
func (m *Manager) Get(ctx context.Context, id string) (*SavedSearch, error) {
	return m.store.GetSavedSearch(ctx, id)
}

// Loaded is the result of applying a saved search: the restored query plus
// the decoded filters.
type Loaded struct {
	Search  *SavedSearch
	Query   string
	Filters facets.Filters
}

// Load restores a saved search. Malformed filter JSON degrades to default
// filters with a log line rather than failing the load. The usage counter is
// bumped asynchronously so the search itself is never delayed by bookkeeping;
// Wait drains pending bumps before the store goes away.
func (m *Manager) Load(ctx context.Context, id string) (*Loaded, error) {
	s, err := m.store.GetSavedSearch(ctx, id)
	if err != nil {
		return nil, err
	}

	filters, err := facets.Decode([]byte(s.FiltersJSON))
	if err != nil {
		m.logger.Warnf("saved search %s has malformed filters, using defaults: %v", s.ID, err)
	}

	m.bumps.Add(1)
	go func() {
		defer m.bumps.Done()
		bumpCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.RecordSavedSearchUse(bumpCtx, s.ID, time.Now().UTC()); err != nil {
			m.logger.Warnf("recording use of saved search %s: %v", s.ID, err)
		}
	}()

	return &Loaded{Search: s, Query: s.Query, Filters: filters}, nil
}

// Wait blocks until every in-flight usage bump has finished. Callers that
// close the store after a Load must call this first.
func (m *Manager) Wait() {
	m.bumps.Wait()
}

// Delete removes a saved search after confirmation. The confirm callback
// receives the search about to be deleted; returning false leaves it
// untouched and yields ErrDeclined. Deletion is irreversible, so a nil
// callback declines rather than confirms.
func (m *Manager) Delete(ctx context.Context, id string, confirm func(*SavedSearch) bool) error {
	s, err := m.store.GetSavedSearch(ctx, id)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm(s) {
		return ErrDeclined
	}
	if err := m.store.DeleteSavedSearch(ctx, id); err != nil {
		return fmt.Errorf("deleting saved search: %w", err)
	}
	m.logger.Infof("deleted saved search %s (%q)", s.ID, s.Name)
	return nil
}

// List returns the saved searches visible to ident: organization-visible
// entries in the caller's organization plus everything the caller owns.
func (m *Manager) List(ctx context.Context, ident Identity) ([]*SavedSearch, error) {
	all, err := m.store.ListSavedSearches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved searches: %w", err)
	}

	visible := make([]*SavedSearch, 0, len(all))
	for _, s := range all {
		if s.VisibleTo(ident) {
			visible = append(visible, s)
		}
	}
	return visible, nil
}
