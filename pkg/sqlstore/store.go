package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/duynguyendang/askdb/pkg/conversation"
	_ "github.com/mattn/go-sqlite3"
)

// ErrEmptyStatement is returned when there is no SQL text to run.
var ErrEmptyStatement = errors.New("empty SQL statement")

// Store executes SQL text against a SQLite database and returns schema-less rows.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path, ensuring
// that the parent directory exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return New(db), nil
}

// New wraps an already opened handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query runs arbitrary SQL and returns every produced row in column order.
// Statements that produce no rows return an empty, non-nil slice.
func (s *Store) Query(ctx context.Context, query string) ([]*conversation.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyStatement
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.withTableHint(ctx, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]*conversation.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := conversation.NewRecord()
		for i, col := range cols {
			rec.Set(col, normalize(values[i]))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.withTableHint(ctx, err)
	}
	return out, nil
}

// ExecScript runs a multi-statement SQL script.
func (s *Store) ExecScript(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Schema returns the definitions of every table joined by semicolons,
// in the form the SQL-generation prompt expects.
func (s *Store) Schema(ctx context.Context) (string, error) {
	entries, err := s.masterEntries(ctx)
	if err != nil {
		return "", err
	}

	var defs []string
	for _, e := range entries {
		if e.kind == "table" && strings.TrimSpace(e.sql) != "" {
			defs = append(defs, strings.TrimSpace(e.sql))
		}
	}
	return strings.Join(defs, ";\n\n") + ";", nil
}

// TableNames lists user tables in catalog order.
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	entries, err := s.masterEntries(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.kind == "table" && !strings.HasPrefix(e.name, "sqlite_") {
			names = append(names, e.name)
		}
	}
	return names, nil
}

type masterEntry struct {
	kind string
	name string
	sql  string
}

func (s *Store) masterEntries(ctx context.Context) ([]masterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, name, sql FROM sqlite_master`)
	if err != nil {
		return nil, fmt.Errorf("read sqlite_master: %w", err)
	}
	defer rows.Close()

	var entries []masterEntry
	for rows.Next() {
		var e masterEntry
		var def sql.NullString
		if err := rows.Scan(&e.kind, &e.name, &def); err != nil {
			return nil, fmt.Errorf("scan sqlite_master: %w", err)
		}
		e.sql = def.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// normalize turns driver byte slices into strings so rows serialize as text.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
