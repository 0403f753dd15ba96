package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/calltime/slate/pkg/core"
)

// StoreRecords upserts records into the index and keeps the FTS table in
// sync. The whole batch commits atomically.
func (s *Store) StoreRecords(ctx context.Context, records []core.Result) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.logger.Warnf("rolling back transaction: %v", err)
			}
		}
	}()

	// REPLACE assigns a fresh rowid, so an existing record's FTS entry has
	// to be removed first or it dangles at the old rowid.
	ftsDelStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records_fts (records_fts, rowid, title, description, project_name, labels)
		SELECT 'delete', rowid, title, description, project_name, labels FROM records WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS delete statement: %w", err)
	}
	defer func() {
		if err := ftsDelStmt.Close(); err != nil {
			s.logger.Warnf("closing FTS delete statement: %v", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (id, kind, title, description, project_id, project_name, labels, created_at, attrs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Warnf("closing statement: %v", err)
		}
	}()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records_fts (rowid, title, description, project_name, labels)
		VALUES ((SELECT rowid FROM records WHERE id = ?), ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS statement: %w", err)
	}
	defer func() {
		if err := ftsStmt.Close(); err != nil {
			s.logger.Warnf("closing FTS statement: %v", err)
		}
	}()

	for _, r := range records {
		attrsJSON, err := json.Marshal(r.Attrs)
		if err != nil {
			return fmt.Errorf("marshaling attrs for record %s: %w", r.ID, err)
		}
		labels := strings.Join(r.Attrs.Labels, " ")

		if _, err := ftsDelStmt.ExecContext(ctx, r.ID); err != nil {
			return fmt.Errorf("removing stale FTS entry for record %s: %w", r.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			r.ID, string(r.Kind), r.Title, r.Description,
			r.ProjectID, r.ProjectName, labels, r.CreatedAt, string(attrsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}

		_, err = ftsStmt.ExecContext(ctx, r.ID, r.Title, r.Description, r.ProjectName, labels)
		if err != nil {
			return fmt.Errorf("inserting record %s into FTS: %w", r.ID, err)
		}
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	return err
}

// SearchRecords runs a full-text search and returns normalized results with
// a relevance score in [0, 1). An empty query returns the most recent
// records with zero relevance.
func (s *Store) SearchRecords(ctx context.Context, query string, limit int) ([]core.Result, error) {
	if limit <= 0 {
		limit = 30
	}

	var sqlQuery string
	var args []interface{}

	if query != "" {
		sqlQuery = `
			SELECT r.id, r.kind, r.title, r.description, r.project_id, r.project_name,
			       r.created_at, r.attrs, bm25(records_fts),
			       snippet(records_fts, -1, '<mark>', '</mark>', '…', 12)
			FROM records r
			JOIN records_fts fts ON r.rowid = fts.rowid
			WHERE records_fts MATCH ?
			ORDER BY bm25(records_fts), r.created_at DESC
			LIMIT ?`
		args = []interface{}{query, limit}
	} else {
		sqlQuery = `
			SELECT id, kind, title, description, project_id, project_name,
			       created_at, attrs, 0.0, ''
			FROM records
			ORDER BY created_at DESC
			LIMIT ?`
		args = []interface{}{limit}
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing rows: %v", err)
		}
	}()

	var results []core.Result
	for rows.Next() {
		var r core.Result
		var kind, attrsStr, snippet string
		var createdAt time.Time
		var score float64

		err = rows.Scan(&r.ID, &kind, &r.Title, &r.Description, &r.ProjectID,
			&r.ProjectName, &createdAt, &attrsStr, &score, &snippet)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Kind = core.ParseKind(kind)
		r.CreatedAt = createdAt
		r.Relevance = relevanceFromScore(score)
		if snippet != "" {
			r.Highlights = []string{snippet}
		}
		if err := json.Unmarshal([]byte(attrsStr), &r.Attrs); err != nil {
			s.logger.Warnf("record %s has malformed attrs, keeping without them: %v", r.ID, err)
			r.Attrs = core.AssetAttrs{}
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// relevanceFromScore maps an FTS5 bm25 score (more negative is better) into
// [0, 1), monotonically.
func relevanceFromScore(bm25 float64) float64 {
	score := -bm25
	if score <= 0 {
		return 0
	}
	return score / (score + 1)
}

// DeleteRecord removes a record and its FTS entry.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.logger.Warnf("rolling back transaction: %v", err)
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records_fts (records_fts, rowid, title, description, project_name, labels)
		SELECT 'delete', rowid, title, description, project_name, labels FROM records WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("removing record %s from FTS: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	return err
}
