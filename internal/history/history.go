// Package history keeps a SQLite log of sampling runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vk/patterngrid/internal/ctxlog"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	graph       TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	iterations  INTEGER NOT NULL,
	score       REAL,
	variation   TEXT NOT NULL,
	revision    TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_by_graph ON runs (graph, created_at);
`

// timeFormat has a fixed width so that created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one recorded sampling run. Revision is the pattern revision the run
// produced, or uuid.Nil.
type Run struct {
	ID         uuid.UUID
	Graph      string
	Strategy   string
	Seed       uint64
	Iterations int
	Score      float64
	Variation  []int32
	Revision   uuid.UUID
	CreatedAt  time.Time
}

// Store records runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("History store opened.", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run. A zero ID or CreatedAt is filled in; the stored run is
// returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	variation, err := json.Marshal(run.Variation)
	if err != nil {
		return Run{}, fmt.Errorf("marshal variation: %w", err)
	}

	var revision sql.NullString
	if run.Revision != uuid.Nil {
		revision = sql.NullString{String: run.Revision.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, graph, strategy, seed, iterations, score, variation, revision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Graph, run.Strategy, int64(run.Seed), run.Iterations,
		run.Score, string(variation), revision, run.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Run recorded.", "run_id", run.ID, "graph", run.Graph, "score", run.Score)
	return run, nil
}

// Get retrieves a run by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, graph, strategy, seed, iterations, score, variation, revision, created_at
		 FROM runs WHERE run_id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs of graph, newest first. A limit of zero or
// less returns every run.
func (s *Store) List(ctx context.Context, graph string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, graph, strategy, seed, iterations, score, variation, revision, created_at
		 FROM runs WHERE graph = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, graph, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		id         string
		seed       int64
		score      sql.NullFloat64
		variation  string
		revision   sql.NullString
		createdStr string
	)
	err := sc.Scan(&id, &run.Graph, &run.Strategy, &seed, &run.Iterations, &score, &variation, &revision, &createdStr)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("parse run id: %w", err)
	}
	run.Seed = uint64(seed)
	run.Score = score.Float64
	if err := json.Unmarshal([]byte(variation), &run.Variation); err != nil {
		return Run{}, fmt.Errorf("unmarshal variation: %w", err)
	}
	if revision.Valid {
		if run.Revision, err = uuid.Parse(revision.String); err != nil {
			return Run{}, fmt.Errorf("parse revision: %w", err)
		}
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return run, nil
}
