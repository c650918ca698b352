package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/pattern"
)

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	trust_score REAL NOT NULL,
	updated     TEXT NOT NULL,
	doc         TEXT NOT NULL
);
`

// SQLiteStore persists patterns as one row per id in a single
// "patterns" table: trust_score and updated are lifted into their own
// columns for indexed querying (they are re-derived at load and on
// write, never trusted as authoritative on their own, per §6), while
// the full record round-trips through the doc column as JSON.
//
// Uses modernc.org/sqlite as the driver (a pure-Go implementation, no
// cgo) through jmoiron/sqlx's prepared-statement helpers, grounded in
// the same pairing used elsewhere in the retrieved dependency pack.
type SQLiteStore struct {
	db *sqlx.DB
}

// SQLiteOption configures an SQLiteStore at construction time,
// following the teacher's FileStorage functional-options pattern.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	maxOpenConns int
}

// WithMaxOpenConns caps the number of concurrent SQLite connections.
func WithMaxOpenConns(n int) SQLiteOption {
	return func(c *sqliteConfig) { c.maxOpenConns = n }
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed Store
// at path, which may be the value read from config.StorePath /
// APEX_STORE_PATH.
func OpenSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	cfg := sqliteConfig{maxOpenConns: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, &apexerr.StoreError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &apexerr.StoreError{Op: "migrate", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*pattern.Pattern, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM patterns WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apexerr.NotFoundError{ID: id}
		}
		return nil, &apexerr.StoreError{Op: "get", Err: err}
	}
	var p pattern.Pattern
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, &apexerr.StoreError{Op: "decode", Err: err}
	}
	p.TrustScore = pattern.DerivedTrustScore(p.Usage)
	return &p, nil
}

func (s *SQLiteStore) Put(ctx context.Context, p *pattern.Pattern) error {
	p.TrustScore = pattern.DerivedTrustScore(p.Usage)

	doc, err := json.Marshal(p)
	if err != nil {
		return &apexerr.StoreError{Op: "encode", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, type, trust_score, updated, doc)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			trust_score = excluded.trust_score,
			updated = excluded.updated,
			doc = excluded.doc
	`, p.ID, string(p.Type), p.TrustScore, p.Updated.Format("2006-01-02T15:04:05Z07:00"), string(doc))
	if err != nil {
		return &apexerr.StoreError{Op: "put", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id); err != nil {
		return &apexerr.StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]*pattern.Pattern, error) {
	var docs []string
	if err := s.db.SelectContext(ctx, &docs, `SELECT doc FROM patterns ORDER BY id`); err != nil {
		return nil, &apexerr.StoreError{Op: "list", Err: err}
	}

	out := make([]*pattern.Pattern, 0, len(docs))
	for _, doc := range docs {
		var p pattern.Pattern
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, &apexerr.StoreError{Op: "decode", Err: fmt.Errorf("pattern row: %w", err)}
		}
		p.TrustScore = pattern.DerivedTrustScore(p.Usage)
		out = append(out, &p)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
