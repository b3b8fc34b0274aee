package search

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geoknoesis/ldgraph/rdf"
)

// Row is one full-text index entry.
type Row struct {
	URI  string
	Type string
	Text string
}

// Index is an append-style full-text index. It is a cache and can always be
// rebuilt from the graph.
type Index interface {
	Append(ctx context.Context, row Row) error
	Match(ctx context.Context, query string) ([]Row, error)
	Clear(ctx context.Context) error
	Close() error
}

// SQLiteIndex is an Index backed by an SQLite FTS4 table.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens the index at path, or an in-memory index when path
// is empty or ":memory:".
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("search: %w: open index: %v", rdf.ErrConfiguration, err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS resource_fts USING fts4(uri, type, text)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("search: %w: create index table: %v", rdf.ErrConfiguration, err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Append inserts row. Rows are never deduplicated.
func (x *SQLiteIndex) Append(ctx context.Context, row Row) error {
	_, err := x.db.ExecContext(ctx,
		"INSERT INTO resource_fts(uri, type, text) VALUES (?, ?, ?)",
		row.URI, row.Type, row.Text)
	if err != nil {
		return fmt.Errorf("search: append %s: %w", row.URI, err)
	}
	return nil
}

// Match returns the rows whose text matches the FTS4 query.
func (x *SQLiteIndex) Match(ctx context.Context, query string) ([]Row, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT uri, type, text FROM resource_fts WHERE text MATCH ?", query)
	if err != nil {
		return nil, fmt.Errorf("search: match %q: %w", query, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.URI, &r.Type, &r.Text); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: match %q: %w", query, err)
	}
	return out, nil
}

// Clear deletes every row.
func (x *SQLiteIndex) Clear(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM resource_fts"); err != nil {
		return fmt.Errorf("search: clear: %w", err)
	}
	return nil
}

// Close closes the database.
func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}
