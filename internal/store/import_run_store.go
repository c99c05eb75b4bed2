package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ImportRunStatus string

const (
	ImportRunStatusRunning   ImportRunStatus = "running"
	ImportRunStatusCompleted ImportRunStatus = "completed"
	ImportRunStatusPartial   ImportRunStatus = "partial"
	ImportRunStatusFailed    ImportRunStatus = "failed"
)

var validImportRunStatuses = map[ImportRunStatus]struct{}{
	ImportRunStatusRunning:   {},
	ImportRunStatusCompleted: {},
	ImportRunStatusPartial:   {},
	ImportRunStatusFailed:    {},
}

const importRunSelectColumns = `id, source, action, status, success, partial, message, warnings, started_at, finished_at`

// ImportRun is one invocation of a competitor-data operation (detect, import
// or cleanup) recorded for the run history.
type ImportRun struct {
	ID         string
	Source     string
	Action     string
	Status     ImportRunStatus
	Success    bool
	Partial    bool
	Message    string
	Warnings   []string
	StartedAt  time.Time
	FinishedAt *time.Time
}

type StartImportRunInput struct {
	Source string
	Action string
}

type FinishImportRunInput struct {
	ID       string
	Status   ImportRunStatus
	Success  bool
	Partial  bool
	Message  string
	Warnings []string
}

type ImportRunStore struct {
	db *sql.DB
}

func NewImportRunStore(db *sql.DB) *ImportRunStore {
	return &ImportRunStore{db: db}
}

func (s *ImportRunStore) Start(ctx context.Context, input StartImportRunInput) (*ImportRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("import run store is not configured")
	}

	source, action, err := normalizeImportRunScope(input.Source, input.Action)
	if err != nil {
		return nil, err
	}

	run, err := scanImportRunRow(s.db.QueryRowContext(
		ctx,
		`INSERT INTO import_runs (
			id,
			source,
			action,
			status,
			success,
			partial,
			message,
			warnings,
			started_at,
			finished_at
		) VALUES (
			$1,
			$2,
			$3,
			$4,
			FALSE,
			FALSE,
			'',
			'{}',
			NOW(),
			NULL
		)
		RETURNING `+importRunSelectColumns,
		uuid.NewString(),
		source,
		action,
		ImportRunStatusRunning,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to start import run: %w", err)
	}

	return run, nil
}

func (s *ImportRunStore) Finish(ctx context.Context, input FinishImportRunInput) (*ImportRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("import run store is not configured")
	}

	runID := strings.TrimSpace(input.ID)
	if !uuidRegex.MatchString(runID) {
		return nil, fmt.Errorf("invalid run id")
	}
	if _, ok := validImportRunStatuses[input.Status]; !ok {
		return nil, fmt.Errorf("invalid status")
	}

	warnings := input.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	run, err := scanImportRunRow(s.db.QueryRowContext(
		ctx,
		`UPDATE import_runs
		    SET status = $2,
		        success = $3,
		        partial = $4,
		        message = $5,
		        warnings = $6,
		        finished_at = NOW()
		  WHERE id = $1
		RETURNING `+importRunSelectColumns,
		runID,
		input.Status,
		input.Success,
		input.Partial,
		input.Message,
		pq.Array(warnings),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("import run not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to finish import run: %w", err)
	}

	return run, nil
}

func (s *ImportRunStore) GetByID(ctx context.Context, id string) (*ImportRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("import run store is not configured")
	}

	runID := strings.TrimSpace(id)
	if !uuidRegex.MatchString(runID) {
		return nil, fmt.Errorf("invalid run id")
	}

	run, err := scanImportRunRow(s.db.QueryRowContext(
		ctx,
		`SELECT `+importRunSelectColumns+`
		 FROM import_runs
		 WHERE id = $1`,
		runID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("import run not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}

	return run, nil
}

func (s *ImportRunStore) ListRecent(ctx context.Context, limit int) ([]ImportRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("import run store is not configured")
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+importRunSelectColumns+`
		 FROM import_runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]ImportRun, 0)
	for rows.Next() {
		run, scanErr := scanImportRunRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan import run row: %w", scanErr)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading import run rows: %w", err)
	}

	return runs, nil
}

type importRunRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImportRunRow(scanner importRunRowScanner) (*ImportRun, error) {
	var (
		run        ImportRun
		status     string
		warnings   pq.StringArray
		finishedAt sql.NullTime
	)

	if err := scanner.Scan(
		&run.ID,
		&run.Source,
		&run.Action,
		&status,
		&run.Success,
		&run.Partial,
		&run.Message,
		&warnings,
		&run.StartedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	run.Status = ImportRunStatus(status)
	run.Warnings = []string(warnings)
	run.StartedAt = run.StartedAt.UTC()
	if finishedAt.Valid {
		utc := finishedAt.Time.UTC()
		run.FinishedAt = &utc
	}

	return &run, nil
}

func normalizeImportRunScope(source, action string) (string, string, error) {
	normalizedSource := strings.TrimSpace(strings.ToLower(source))
	if normalizedSource == "" {
		return "", "", fmt.Errorf("source is required")
	}

	normalizedAction := strings.TrimSpace(strings.ToLower(action))
	if normalizedAction == "" {
		return "", "", fmt.Errorf("action is required")
	}

	return normalizedSource, normalizedAction, nil
}
