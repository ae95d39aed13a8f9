package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time check that SQLite satisfies Store.
var _ Store = (*SQLite)(nil)

// SQLite persists documents in a single table, one row per tournament. A field write is a
// read-modify-write of that row inside one SQL transaction.
//
// Change notifications are in-process only: two processes sharing the same file won't
// see each other's writes until their next own change. Use the Postgres backend for that.
type SQLite struct {
	db   *sql.DB
	path string
	feed *feed
}

// OpenSQLite opens (creating when needed) the database file at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	o := buildOptions(opts)
	if path == "" {
		path = "scorecard.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY on the read-modify-write path.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tournaments (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tournaments table: %w", err)
	}
	s := &SQLite{db: db, path: path}
	s.feed = newFeed(s.load, o.log)
	return s, nil
}

// Subscribe implements Store.
func (s *SQLite) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	return s.feed.subscribe(ctx, fn), nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, p Path, value json.RawMessage) (retErr error) {
	if err := p.validate(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return ErrInvalidDocument
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT document FROM tournaments WHERE id = ?`, p.ID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("set %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("select %q: %w", p.ID, err)
	}
	updated, err := sjson.SetRaw(doc, p.sjsonPath(), string(value))
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tournaments SET document = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		updated, p.ID,
	); err != nil {
		return fmt.Errorf("update %q: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.feed.notify()
	return nil
}

// Create implements Store.
func (s *SQLite) Create(ctx context.Context, id string, doc json.RawMessage) (retErr error) {
	if id == "" {
		return ErrEmptyPath
	}
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %q: %w", id, err)
	}
	if exists > 0 {
		return fmt.Errorf("create %q: %w", id, ErrExists)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tournaments (id, document) VALUES (?, ?)`, id, string(doc)); err != nil {
		return fmt.Errorf("insert %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.feed.notify()
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}

	s.feed.notify()
	return nil
}

// Get returns one raw document.
func (s *SQLite) Get(ctx context.Context, id string) (json.RawMessage, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM tournaments WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close ends every subscription and closes the database.
func (s *SQLite) Close() error {
	s.feed.close()
	return s.db.Close()
}

func (s *SQLite) load(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM tournaments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Document
	for rows.Next() {
		var (
			id  string
			doc string
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, Document{ID: id, Raw: json.RawMessage(doc)})
	}
	return out, rows.Err()
}
