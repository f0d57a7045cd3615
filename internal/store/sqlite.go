package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ceprince/packing-list/internal/model"
)

// SQLiteStore implements StateStore and CatalogCache using a local
// SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// LoadPiece returns the stored blob for one state piece of one course.
// An absent piece returns nil with no error.
func (s *SQLiteStore) LoadPiece(
	ctx context.Context,
	courseID, piece string,
) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data,
		"SELECT data FROM course_state WHERE course_id = ? AND piece = ?",
		courseID, piece,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s for course %s: %w", piece, courseID, err)
	}
	return []byte(data), nil
}

// SavePiece writes the blob for one state piece of one course, replacing
// any previous value.
func (s *SQLiteStore) SavePiece(
	ctx context.Context,
	courseID, piece string,
	data []byte,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO course_state (course_id, piece, data, updated_at)
		VALUES (?, ?, ?, ?)`,
		courseID, piece, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s for course %s: %w", piece, courseID, err)
	}
	return nil
}

// UpsertPages replaces the cached page table with the given records,
// preserving sheet order.
func (s *SQLiteStore) UpsertPages(
	ctx context.Context,
	records []model.PageRecord,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM page_cache"); err != nil {
		return fmt.Errorf("clearing page cache: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO page_cache (id, position, data, fetched_at)
		VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing page cache insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling page %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, i, string(data), now); err != nil {
			return fmt.Errorf("caching page %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetPages returns the cached page table in its original sheet order.
// Rows that fail to decode are skipped rather than failing the whole read.
func (s *SQLiteStore) GetPages(ctx context.Context) ([]model.PageRecord, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT data FROM page_cache ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("querying page cache: %w", err)
	}
	defer rows.Close()

	var records []model.PageRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning page cache row: %w", err)
		}
		var r model.PageRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
