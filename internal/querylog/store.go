// Package querylog persists a rolling, append-only record of handled
// queries to SQLite using embedded, versioned migrations. It is
// write-only telemetry for the status API to serve: nothing in the
// resolver's request path ever reads from it, so it never functions
// as an answer cache.
package querylog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Entry is one handled query, recorded once its response has been built.
type Entry struct {
	ID          int64
	ProcessedAt time.Time
	ClientAddr  string
	QName       string
	QType       uint16
	Synthesized bool
	RCode       uint16
	LatencyUs   int64
}

// Store wraps a SQLite-backed query log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the query log database at path and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("querylog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateSchema(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("querylog: load migrations: %w", err)
	}
	target, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("querylog: sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return fmt.Errorf("querylog: build migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("querylog: apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one handled query. It never blocks a response: the
// resolver calls it from a background goroutine, off the reply path.
func (s *Store) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (processed_at, client_addr, qname, qtype, synthesized, rcode, latency_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ProcessedAt, e.ClientAddr, e.QName, e.QType, boolToInt(e.Synthesized), e.RCode, e.LatencyUs,
	)
	if err != nil {
		return fmt.Errorf("querylog: append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first (limit defaults
// to 100 when not positive). It only reads; bounding the table is Trim's
// job.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, processed_at, client_addr, qname, qtype, synthesized, rcode, latency_us
		 FROM query_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querylog: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var synth int
		if err := rows.Scan(&e.ID, &e.ProcessedAt, &e.ClientAddr, &e.QName, &e.QType, &synth, &e.RCode, &e.LatencyUs); err != nil {
			return nil, fmt.Errorf("querylog: scan row: %w", err)
		}
		e.Synthesized = synth != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Trim deletes all but the most recent keep rows, bounding table growth
// under sustained load.
func (s *Store) Trim(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM query_log WHERE id NOT IN (SELECT id FROM query_log ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("querylog: trim: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
