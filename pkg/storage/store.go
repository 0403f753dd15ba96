// Package storage persists indexed records and saved searches in a single
// SQLite database with an FTS5 index for full-text search.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/db"
	"github.com/calltime/slate/pkg/log"
)

// Store wraps the slate database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (or creates) the database at dbPath, applies performance
// pragmas and brings the schema up to date.
func Open(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456",
		"PRAGMA optimize",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.Initialize(conn); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: conn, logger: log.ForComponent("storage")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for migrations and maintenance
// tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Stats summarizes the index contents.
type Stats struct {
	TotalRecords  int               `json:"total_records"`
	ByKind        map[core.Kind]int `json:"by_kind"`
	SavedSearches int               `json:"saved_searches"`
	OldestRecord  *time.Time        `json:"oldest_record,omitempty"`
	NewestRecord  *time.Time        `json:"newest_record,omitempty"`
}

func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{ByKind: make(map[core.Kind]int)}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM saved_searches").Scan(&stats.SavedSearches); err != nil {
		return nil, fmt.Errorf("counting saved searches: %w", err)
	}

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM records GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("counting records by kind: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing rows: %v", err)
		}
	}()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning kind count: %w", err)
		}
		stats.ByKind[core.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullString
	err = s.db.QueryRow("SELECT MIN(created_at), MAX(created_at) FROM records").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("getting record date range: %w", err)
	}
	if oldest.Valid && newest.Valid {
		if t, err := parseStoredTime(oldest.String); err == nil {
			stats.OldestRecord = &t
		}
		if t, err := parseStoredTime(newest.String); err == nil {
			stats.NewestRecord = &t
		}
	}

	return stats, nil
}

// parseStoredTime handles the timestamp formats SQLite drivers emit.
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05-07:00", s)
}

func (s *Store) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

func (s *Store) Analyze() error {
	_, err := s.db.Exec("ANALYZE")
	return err
}

func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

func (s *Store) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
