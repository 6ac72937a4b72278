package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hollis-dev/envprobe/internal/probe"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS probes (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    dependency  TEXT    NOT NULL,
    status      TEXT    NOT NULL CHECK(status IN ('installed', 'missing')),
    latency_ms  INTEGER NOT NULL,
    error       TEXT    NOT NULL DEFAULT '',
    probed_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probes_dependency ON probes(dependency);
CREATE INDEX IF NOT EXISTS idx_probes_probed_at ON probes(probed_at DESC);
CREATE INDEX IF NOT EXISTS idx_probes_dependency_probed ON probes(dependency, probed_at DESC);
`

// Probe is a stored probe result.
type Probe struct {
	ID         int64
	Dependency string
	Status     string
	LatencyMs  int64
	Error      string
	ProbedAt   time.Time
}

// DB wraps a SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertProbe persists a probe result.
func (d *DB) InsertProbe(ctx context.Context, r probe.Result) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO probes (dependency, status, latency_ms, error, probed_at) VALUES (?, ?, ?, ?, ?)`,
		r.Dependency,
		string(r.Status),
		r.Latency.Milliseconds(),
		r.Error,
		r.ProbedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting probe for %q: %w", r.Dependency, err)
	}
	return nil
}

// LatestProbe returns the most recent probe for the given dependency, or nil if none.
func (d *DB) LatestProbe(ctx context.Context, dependency string) (*Probe, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, dependency, status, latency_ms, error, probed_at FROM probes WHERE dependency = ? ORDER BY probed_at DESC LIMIT 1`,
		dependency,
	)
	p, err := scanProbe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest probe for %q: %w", dependency, err)
	}
	return p, nil
}

// DependencyHistory returns paginated probe history for a dependency plus the total count.
func (d *DB) DependencyHistory(ctx context.Context, dependency string, limit, offset int) ([]Probe, int, error) {
	var total int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM probes WHERE dependency = ?`, dependency,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting probes for %q: %w", dependency, err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, dependency, status, latency_ms, error, probed_at FROM probes WHERE dependency = ? ORDER BY probed_at DESC LIMIT ? OFFSET ?`,
		dependency, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history for %q: %w", dependency, err)
	}
	defer rows.Close()

	probes, err := scanProbes(rows)
	if err != nil {
		return nil, 0, err
	}
	return probes, total, nil
}

// AllLatest returns the most recent probe for each dependency.
func (d *DB) AllLatest(ctx context.Context) ([]Probe, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, dependency, status, latency_ms, error, probed_at
		FROM probes
		WHERE id IN (
			SELECT MAX(id) FROM probes GROUP BY dependency
		)
		ORDER BY dependency
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all latest: %w", err)
	}
	defer rows.Close()
	return scanProbes(rows)
}

// AvailabilityPercent returns the percentage of "installed" results in the
// last N probes for a dependency.
func (d *DB) AvailabilityPercent(ctx context.Context, dependency string, last int) (float64, error) {
	var total int
	var installed sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN status = 'installed' THEN 1 ELSE 0 END)
		FROM (
			SELECT status FROM probes WHERE dependency = ? ORDER BY probed_at DESC LIMIT ?
		)
	`, dependency, last).Scan(&total, &installed)
	if err != nil {
		return 0, fmt.Errorf("calculating availability for %q: %w", dependency, err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(installed.Int64) / float64(total) * 100, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProbe(row scanner) (*Probe, error) {
	var p Probe
	var probedAt string
	err := row.Scan(&p.ID, &p.Dependency, &p.Status, &p.LatencyMs, &p.Error, &probedAt)
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, probedAt)
	if err != nil {
		// Fallback to RFC3339 without sub-second precision.
		t, err = time.Parse(time.RFC3339, probedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing probed_at %q: %w", probedAt, err)
		}
	}
	p.ProbedAt = t
	return &p, nil
}

func scanProbes(rows *sql.Rows) ([]Probe, error) {
	var probes []Probe
	for rows.Next() {
		p, err := scanProbe(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning probe row: %w", err)
		}
		probes = append(probes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating probe rows: %w", err)
	}
	return probes, nil
}
