package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calltime/slate/pkg/saved"
)

// CreateSavedSearch upserts a saved search.
func (s *Store) CreateSavedSearch(ctx context.Context, ss *saved.SavedSearch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO saved_searches
			(id, name, description, query, filters, scope, project_id, visibility,
			 is_pinned, usage_count, last_used_at, created_by, created_by_email,
			 organization, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ss.ID, ss.Name, ss.Description, ss.Query, ss.FiltersJSON,
		string(ss.Scope), ss.ProjectID, string(ss.Visibility),
		ss.IsPinned, ss.UsageCount, ss.LastUsedAt,
		ss.CreatedBy, ss.CreatedByEmail, ss.Organization,
		ss.CreatedAt, ss.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting saved search %s: %w", ss.ID, err)
	}
	return nil
}

const savedSearchColumns = `
	id, name, description, query, filters, scope, project_id, visibility,
	is_pinned, usage_count, last_used_at, created_by, created_by_email,
	organization, created_at, updated_at`

func scanSavedSearch(scan func(...interface{}) error) (*saved.SavedSearch, error) {
	var ss saved.SavedSearch
	var scope, visibility string
	var lastUsedAt sql.NullTime

	err := scan(
		&ss.ID, &ss.Name, &ss.Description, &ss.Query, &ss.FiltersJSON,
		&scope, &ss.ProjectID, &visibility,
		&ss.IsPinned, &ss.UsageCount, &lastUsedAt,
		&ss.CreatedBy, &ss.CreatedByEmail, &ss.Organization,
		&ss.CreatedAt, &ss.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ss.Scope = saved.Scope(scope)
	ss.Visibility = saved.Visibility(visibility)
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		ss.LastUsedAt = &t
	}
	return &ss, nil
}

// GetSavedSearch fetches one saved search by ID.
func (s *Store) GetSavedSearch(ctx context.Context, id string) (*saved.SavedSearch, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+savedSearchColumns+" FROM saved_searches WHERE id = ?", id)

	ss, err := scanSavedSearch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, saved.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning saved search %s: %w", id, err)
	}
	return ss, nil
}

// ListSavedSearches returns every saved search, pinned first, then most
// recently updated.
func (s *Store) ListSavedSearches(ctx context.Context) ([]*saved.SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+savedSearchColumns+" FROM saved_searches ORDER BY is_pinned DESC, updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying saved searches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing rows: %v", err)
		}
	}()

	var searches []*saved.SavedSearch
	for rows.Next() {
		ss, err := scanSavedSearch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning saved search: %w", err)
		}
		searches = append(searches, ss)
	}
	return searches, rows.Err()
}

// RecordSavedSearchUse bumps the usage counter and last-used timestamp.
func (s *Store) RecordSavedSearchUse(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE saved_searches SET usage_count = usage_count + 1, last_used_at = ?
		WHERE id = ?
	`, at, id)
	if err != nil {
		return fmt.Errorf("recording use of saved search %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return saved.ErrNotFound
	}
	return nil
}

// DeleteSavedSearch removes a saved search permanently.
func (s *Store) DeleteSavedSearch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saved_searches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting saved search %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return saved.ErrNotFound
	}
	return nil
}
