package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/brickshell/pkg/shell"
)

// timeLayout has fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps runs in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		length_mm INTEGER NOT NULL,
		width_mm INTEGER NOT NULL,
		height_mm INTEGER NOT NULL,
		thickness_mm INTEGER NOT NULL,
		max_bricks INTEGER NOT NULL,
		total INTEGER NOT NULL,
		active INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);`,
	`CREATE TABLE IF NOT EXISTS openings (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		wall TEXT NOT NULL,
		x_mm INTEGER NOT NULL,
		z_mm INTEGER NOT NULL,
		width_mm INTEGER NOT NULL,
		height_mm INTEGER NOT NULL,
		carved INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);`,
	`CREATE TABLE IF NOT EXISTS bricks (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		dx INTEGER NOT NULL,
		dy INTEGER NOT NULL,
		dz INTEGER NOT NULL,
		active INTEGER NOT NULL,
		region TEXT NOT NULL,
		PRIMARY KEY (run_id, id)
	);`,
}

// SaveRun writes the run, its openings and bricks in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	prepare(run)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	d := run.Dimensions
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, length_mm, width_mm, height_mm, thickness_mm, max_bricks, total, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), d.LengthMM, d.WidthMM, d.HeightMM, d.ThicknessMM,
		run.MaxBricks, run.Total, run.Active); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	ostmt, err := tx.PrepareContext(ctx,
		`INSERT INTO openings (run_id, seq, type, wall, x_mm, z_mm, width_mm, height_mm, carved, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ostmt.Close()
	for i, o := range run.Openings {
		if _, err := ostmt.ExecContext(ctx, run.ID, i, o.Type, o.Wall, o.XMM, o.ZMM, o.WidthMM, o.HeightMM, o.Carved, o.Error); err != nil {
			return fmt.Errorf("insert opening %d: %w", i, err)
		}
	}

	bstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bricks (run_id, id, x, y, z, dx, dy, dz, active, region)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer bstmt.Close()
	for _, b := range run.Bricks {
		if _, err := bstmt.ExecContext(ctx, run.ID, b.ID, b.X, b.Y, b.Z, b.DX, b.DY, b.DZ, b.Active, string(b.Region)); err != nil {
			return fmt.Errorf("insert brick %d: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, created_at, length_mm, width_mm, height_mm, thickness_mm, max_bricks, total, active`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		created string
	)
	d := &run.Dimensions
	if err := row.Scan(&run.ID, &created, &d.LengthMM, &d.WidthMM, &d.HeightMM, &d.ThicknessMM,
		&run.MaxBricks, &run.Total, &run.Active); err != nil {
		return run, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return run, fmt.Errorf("created_at: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}

// GetRun loads one run with openings and bricks.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if run.Openings, err = s.openings(ctx, id); err != nil {
		return nil, err
	}
	if run.Bricks, err = s.bricks(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first, with openings but no
// bricks.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Openings, err = s.openings(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) openings(ctx context.Context, id string) ([]Opening, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, wall, x_mm, z_mm, width_mm, height_mm, carved, error FROM openings WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Opening{}
	for rows.Next() {
		var o Opening
		if err := rows.Scan(&o.Type, &o.Wall, &o.XMM, &o.ZMM, &o.WidthMM, &o.HeightMM, &o.Carved, &o.Error); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) bricks(ctx context.Context, id string) ([]shell.Brick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, x, y, z, dx, dy, dz, active, region FROM bricks WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []shell.Brick
	for rows.Next() {
		var (
			b      shell.Brick
			region string
		)
		if err := rows.Scan(&b.ID, &b.X, &b.Y, &b.Z, &b.DX, &b.DY, &b.DZ, &b.Active, &region); err != nil {
			return nil, err
		}
		b.Region = shell.Region(region)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
