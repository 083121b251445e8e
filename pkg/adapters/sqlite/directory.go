// Package sqlite serves the station directory from a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/aretw0/railchat/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
    name   TEXT PRIMARY KEY COLLATE NOCASE,
    crs    TEXT NOT NULL,
    county TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_stations_crs ON stations(crs);
`

// Directory implements ports.StationDirectory, ports.StationCoder and ports.StationLister.
// Rows whose crs is "none" are stations without a public code and are never returned.
type Directory struct {
	db   *sql.DB
	path string
}

// Open creates or opens a station database at path.
func Open(path string) (*Directory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return setup(db, path)
}

// OpenMemory creates an empty in-memory directory (useful for testing).
func OpenMemory() (*Directory, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return setup(db, ":memory:")
}

func setup(db *sql.DB, path string) (*Directory, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Directory{db: db, path: path}, nil
}

// Close releases the database.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Lookup finds a station by name, ignoring case.
func (d *Directory) Lookup(ctx context.Context, name string) (domain.Station, error) {
	var st domain.Station
	err := d.db.QueryRowContext(ctx,
		`SELECT name, crs, county FROM stations WHERE name = ? AND crs <> 'none'`,
		strings.TrimSpace(name),
	).Scan(&st.Name, &st.Code, &st.County)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, domain.ErrStationNotFound
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("querying station %q: %w", name, err)
	}
	return st, nil
}

// LookupCode finds a station by code, ignoring case.
func (d *Directory) LookupCode(ctx context.Context, code string) (domain.Station, error) {
	var st domain.Station
	err := d.db.QueryRowContext(ctx,
		`SELECT name, crs, county FROM stations WHERE crs = ? COLLATE NOCASE AND crs <> 'none' LIMIT 1`,
		strings.TrimSpace(code),
	).Scan(&st.Name, &st.Code, &st.County)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, domain.ErrStationNotFound
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("querying station code %q: %w", code, err)
	}
	return st, nil
}

// Search returns up to limit stations whose name contains query, in name order.
// A limit of zero or less means no limit.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]domain.Station, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return d.query(ctx,
		`SELECT name, crs, county FROM stations
		 WHERE name LIKE ? ESCAPE '\' AND crs <> 'none'
		 ORDER BY name LIMIT ?`,
		pattern, limit)
}

// Stations returns every station in name order.
func (d *Directory) Stations(ctx context.Context) ([]domain.Station, error) {
	return d.query(ctx, `SELECT name, crs, county FROM stations WHERE crs <> 'none' ORDER BY name`)
}

func (d *Directory) query(ctx context.Context, q string, args ...any) ([]domain.Station, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.Name, &st.Code, &st.County); err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Import upserts stations from CSV records of the form name,crs[,county]. A first
// record starting with "name" is treated as a header. It returns the number of rows
// written.
func (d *Directory) Import(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (name, crs, county) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET crs = excluded.crs, county = excluded.county`)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	n := 0
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		if len(rec) < 2 {
			return 0, fmt.Errorf("line %d: want name,crs[,county], got %d fields", line, len(rec))
		}
		name, crs := strings.TrimSpace(rec[0]), strings.ToUpper(strings.TrimSpace(rec[1]))
		if name == "" || crs == "" {
			return 0, fmt.Errorf("line %d: empty name or crs", line)
		}
		if crs == "NONE" {
			crs = "none"
		}
		county := ""
		if len(rec) > 2 {
			county = strings.TrimSpace(rec[2])
		}
		if _, err := stmt.ExecContext(ctx, name, crs, county); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}
