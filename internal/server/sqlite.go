package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/larderapp/larder/internal/docstore"
)

// SQLiteStore persists documents in a single table keyed by path. Each row
// carries a monotonically increasing revision and the bearer token that
// claimed the document on its first write.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and initialises the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		path        TEXT PRIMARY KEY,
		doc         TEXT NOT NULL,
		revision    INTEGER NOT NULL,
		owner_token TEXT NOT NULL DEFAULT '',
		updated_at  TEXT NOT NULL
	)`)
	return err
}

// document is one stored row.
type document struct {
	Doc        docstore.Patch
	Revision   uint64
	OwnerToken string
}

// errDocMissing distinguishes a missing row from a query failure.
var errDocMissing = errors.New("no such document")

// load reads the document at path.
func (s *SQLiteStore) load(path docstore.Path) (document, error) {
	var raw string
	var doc document
	err := s.db.QueryRow(
		`SELECT doc, revision, owner_token FROM documents WHERE path = ?`,
		path.String(),
	).Scan(&raw, &doc.Revision, &doc.OwnerToken)
	if errors.Is(err, sql.ErrNoRows) {
		return document{}, errDocMissing
	}
	if err != nil {
		return document{}, fmt.Errorf("load %s: %w", path.String(), err)
	}
	if err := json.Unmarshal([]byte(raw), &doc.Doc); err != nil {
		return document{}, fmt.Errorf("decode stored document %s: %w", path.String(), err)
	}
	return doc, nil
}

// Merge overlays the present fields of patch onto the stored document,
// creating it on first write, and returns the new revision. The whole
// read-modify-write runs in one transaction so concurrent merges cannot
// lose keys.
func (s *SQLiteStore) Merge(path docstore.Path, patch docstore.Patch, ownerToken string) (uint64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	var revision uint64
	err = tx.QueryRow(
		`SELECT doc, revision FROM documents WHERE path = ?`,
		path.String(),
	).Scan(&raw, &revision)

	var stored docstore.Patch
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First write creates the document and claims ownership.
	case err != nil:
		return 0, fmt.Errorf("read for merge: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return 0, fmt.Errorf("decode stored document: %w", err)
		}
	}

	merged, err := json.Marshal(stored.Overlay(patch))
	if err != nil {
		return 0, fmt.Errorf("encode merged document: %w", err)
	}
	revision++

	_, err = tx.Exec(`INSERT INTO documents (path, doc, revision, owner_token, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET doc = excluded.doc, revision = excluded.revision, updated_at = excluded.updated_at`,
		path.String(), string(merged), revision, ownerToken, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("write merged document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit merge: %w", err)
	}
	return revision, nil
}
