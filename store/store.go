// Package store persists project exports in a SQL database, letting
// the compiler generate straight from an editor backend instead of a
// file on disk. SQLite, MySQL and PostgreSQL are supported.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// Dialect names a supported database backend.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ErrNotFound is returned when the requested project does not exist.
var ErrNotFound = errors.New("store: project not found")

func driverFor(d Dialect) (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case MySQL:
		return "mysql", nil
	case Postgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("store: unsupported dialect %q", d)
	}
}

// Store keeps project exports in a projects table. The export JSON is
// stored verbatim so loading round-trips through the same decoding
// path as file-based projects.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database for the given dialect and DSN.
func Open(dialect Dialect, dsn string) (*Store, error) {
	driver, err := driverFor(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", dialect, err)
	}
	return NewStore(db, dialect), nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the projects table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS projects (
	id VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	data TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: creating projects table: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to the dialect's positional form.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// Save upserts the raw project export under its id.
func (s *Store) Save(ctx context.Context, id, name string, data []byte) error {
	var query string
	switch s.dialect {
	case MySQL:
		query = `INSERT INTO projects (id, name, data, updated_at) VALUES (?, ?, ?, ?)
 ON DUPLICATE KEY UPDATE name = VALUES(name), data = VALUES(data), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO projects (id, name, data, updated_at) VALUES (?, ?, ?, ?)
 ON CONFLICT (id) DO UPDATE SET name = excluded.name, data = excluded.data, updated_at = excluded.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(query), id, name, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("store: saving project %s: %w", id, err)
	}
	return nil
}

// Load returns the decoded project with the given id.
func (s *Store) Load(ctx context.Context, id string) (*load.Project, error) {
	var data string
	query := s.rebind(`SELECT data FROM projects WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading project %s: %w", id, err)
	}
	return load.UnmarshalProject([]byte(data))
}

// Info describes a stored project without its payload.
type Info struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// List returns the stored projects ordered by last update, newest
// first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing projects: %w", err)
	}
	defer rows.Close()
	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Name, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning project row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the project with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: deleting project %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
