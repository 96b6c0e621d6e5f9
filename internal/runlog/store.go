package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"choirgrid/internal/services"
)

// Kind names the operation a run performed.
type Kind string

const (
	KindRender Kind = "render"
	KindAlign  Kind = "align"
	KindMerge  Kind = "merge"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded render, align, or merge invocation.
type Run struct {
	ID           string
	Kind         Kind
	ProjectDir   string
	Status       Status
	Detail       string
	Artifact     string
	ErrorKind    string
	ErrorMessage string
	Ticks        int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration reports how long a finished run took, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ArtifactStatus is the outcome for one output file.
type ArtifactStatus string

const (
	ArtifactCompleted ArtifactStatus = "completed"
	ArtifactFailed    ArtifactStatus = "failed"
	ArtifactSkipped   ArtifactStatus = "skipped"
)

// Artifact is one output file (or attempted output) of a run.
type Artifact struct {
	RunID      string
	Path       string
	SourcePath string
	Status     ArtifactStatus
	Error      string
	Frames     int
	CreatedAt  time.Time
}

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run log dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Start records a new running entry and returns its id. An id already carried
// by ctx is reused so log lines and history agree.
func (s *Store) Start(ctx context.Context, kind Kind, projectDir, detail string) (string, error) {
	id, _ := services.RunIDFromContext(ctx)
	if id = strings.TrimSpace(id); id == "" {
		id = uuid.NewString()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, kind, project_dir, status, detail, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), projectDir, string(StatusRunning), nullableString(detail), formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish closes a run. A nil runErr marks it completed; otherwise the failure
// kind and message are stored. artifact is the run's primary output path.
func (s *Store) Finish(ctx context.Context, id, artifact string, ticks int, runErr error) error {
	status := StatusCompleted
	var kind, message any
	if runErr != nil {
		status = StatusFailed
		kind = services.FailureKind(runErr)
		message = runErr.Error()
	}
	err := s.exec(ctx,
		`UPDATE runs SET status = ?, artifact = ?, ticks = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), nullableString(artifact), ticks, kind, message, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// RecordArtifact attaches an output file to a run. An empty status is
// recorded as completed.
func (s *Store) RecordArtifact(ctx context.Context, a Artifact) error {
	if a.Status == "" {
		a.Status = ArtifactCompleted
	}
	err := s.exec(ctx,
		`INSERT INTO artifacts (run_id, path, source_path, status, error_message, frames, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Path, nullableString(a.SourcePath), string(a.Status), nullableString(a.Error), a.Frames, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", a.Path, err)
	}
	return nil
}

// Get returns a run by id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. An empty projectDir lists
// every project; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, projectDir string, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if projectDir != "" {
		query += " WHERE project_dir = ?"
		args = append(args, projectDir)
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Artifacts returns the files a run produced in insertion order.
func (s *Store) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, path, source_path, status, error_message, frames, created_at FROM artifacts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			a       Artifact
			source  sql.NullString
			status  string
			message sql.NullString
			created string
		)
		if err := rows.Scan(&a.RunID, &a.Path, &source, &status, &message, &a.Frames, &created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.SourcePath = source.String
		a.Status = ArtifactStatus(status)
		a.Error = message.String
		if t, err := parseTime(created); err == nil {
			a.CreatedAt = t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkAbandoned flags runs still marked running (for example after a crash)
// as failed and returns how many were updated.
func (s *Store) MarkAbandoned(ctx context.Context, projectDir string) (int64, error) {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, error_kind = 'failed', error_message = 'run did not finish', finished_at = ?
             WHERE status = ? AND project_dir = ?`,
			string(StatusFailed), formatTime(time.Now()), string(StatusRunning), projectDir)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return affected, nil
}
