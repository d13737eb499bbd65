package bundle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var schemas = map[Dialect]string{
	Postgres: `
CREATE TABLE IF NOT EXISTS bundle_files (
    id SERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    content BYTEA NOT NULL DEFAULT ''::bytea,
    size BIGINT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    UNIQUE(run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_bundle_files_run_id ON bundle_files(run_id);
`,
	SQLite: `
CREATE TABLE IF NOT EXISTS bundle_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    content BLOB NOT NULL DEFAULT x'',
    size INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_bundle_files_run_id ON bundle_files(run_id);
`,
}

// SQLStore keeps bundle files in a single table. Queries are written with
// $n placeholders and rebound for SQLite.
type SQLStore struct {
	db         *sql.DB
	dialect    Dialect
	schemaOnce sync.Once
	schemaErr  error
}

func NewSQLStore(db *sql.DB, d Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("bundle: db is nil")
	}
	if _, ok := schemas[d]; !ok {
		return nil, fmt.Errorf("bundle: unknown dialect %q", d)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// OpenSQL opens dsn with the driver registered for d ("pgx" or "sqlite").
func OpenSQL(d Dialect, dsn string) (*SQLStore, error) {
	driver := "pgx"
	if d == SQLite {
		driver = "sqlite"
	}
	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if d == SQLite {
		// One writer keeps modernc from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db, d)
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, schemas[s.dialect])
	})
	return s.schemaErr
}

func (s *SQLStore) rebind(q string) string {
	if s.dialect != SQLite {
		return q
	}
	var b strings.Builder
	for i := 0; i < len(q); i++ {
		if q[i] == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			j := i + 1
			for j < len(q) && q[j] >= '0' && q[j] <= '9' {
				j++
			}
			b.WriteString("?" + q[i+1:j])
			i = j - 1
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (s *SQLStore) Put(ctx context.Context, runID, path string, content []byte) error {
	runID, path, err := normalize(runID, path)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO bundle_files (run_id, path, content, size, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id, path)
DO UPDATE SET content=EXCLUDED.content, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at
`), runID, path, content, int64(len(content)), time.Now().UTC())
	return err
}

func (s *SQLStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	runID, path, err := normalize(runID, path)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var content []byte
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT content FROM bundle_files WHERE run_id=$1 AND path=$2`), runID, path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return content, err
}

// GetURL is always empty; content lives in the table.
func (s *SQLStore) GetURL(context.Context, string, string) (string, error) { return "", nil }

func (s *SQLStore) List(ctx context.Context, runID string) ([]string, error) {
	runID, _, err := normalize(runID, "x")
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT path FROM bundle_files WHERE run_id=$1 ORDER BY path`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	paths := make([]string, 0, 16)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
