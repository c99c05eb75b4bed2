package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/searchlightseo/searchlight/internal/meta"
	"github.com/searchlightseo/searchlight/internal/store"
)

// privilegeRemediation is the operator-facing message for clone step one
// failing. Creating the staging table is the first thing an import does, so
// a failure there is almost always a missing TEMP privilege.
const privilegeRemediation = "Import failed because the database user cannot create temporary tables. Grant the TEMP privilege to the Searchlight database user and retry."

// Runner executes importer operations against an explicit database handle.
// Runs and Progress are optional; a zero value for either simply skips run
// history or progress events.
type Runner struct {
	DB        *sql.DB
	Meta      *meta.Service
	MetaStore *store.MetaStore
	Runs      *store.ImportRunStore
	Progress  ProgressSink
}

func NewRunner(db *sql.DB) *Runner {
	metaStore := store.NewMetaStore(db)
	return &Runner{
		DB:        db,
		Meta:      meta.NewService(metaStore),
		MetaStore: metaStore,
	}
}

// Detect probes for source data without recording run history. Use it for
// availability listings; RunDetect is the recorded operation.
func (r *Runner) Detect(ctx context.Context, source Source) (bool, error) {
	if err := r.ready(source); err != nil {
		return false, err
	}
	return r.detect(ctx, source)
}

// RunDetect reports whether any data for the source is present right now.
// The answer is computed per call; nothing is cached.
func (r *Runner) RunDetect(ctx context.Context, source Source) *Status {
	status := NewStatus(ActionDetect, false)
	if err := r.ready(source); err != nil {
		return status.SetMessage(err.Error())
	}

	runID := r.startRun(ctx, source, ActionDetect)
	status.RunID = runID
	r.emit(Event{Type: EventRunStarted, RunID: runID, Source: source.Slug, Action: ActionDetect})

	detected, err := r.detect(ctx, source)
	switch {
	case err != nil:
		status.SetMessage(fmt.Sprintf("%s detection failed: %v", source.Name, err))
	case !detected:
		status.SetMessage(fmt.Sprintf("No %s data found.", source.Name))
	default:
		status.SetStatus(true).SetMessage(fmt.Sprintf("%s data found.", source.Name))
	}

	r.finishRun(ctx, runID, status)
	r.emitFinished(runID, source, status)
	return status
}

// RunImport clones the source's keys into the Searchlight namespace and then
// applies its transform. Detection gates the whole operation: when no source
// data exists the import fails without touching the store.
func (r *Runner) RunImport(ctx context.Context, source Source) *Status {
	status := NewStatus(ActionImport, false)
	if err := r.ready(source); err != nil {
		return status.SetMessage(err.Error())
	}

	runID := r.startRun(ctx, source, ActionImport)
	status.RunID = runID
	r.emit(Event{Type: EventRunStarted, RunID: runID, Source: source.Slug, Action: ActionImport})

	r.doImport(ctx, runID, source, status)

	r.finishRun(ctx, runID, status)
	r.emitFinished(runID, source, status)
	return status
}

// RunCleanup deletes the source's keys. Destination records are never
// touched: every pattern a source declares matches its own namespace only.
func (r *Runner) RunCleanup(ctx context.Context, source Source) *Status {
	status := NewStatus(ActionCleanup, false)
	if err := r.ready(source); err != nil {
		return status.SetMessage(err.Error())
	}

	runID := r.startRun(ctx, source, ActionCleanup)
	status.RunID = runID
	r.emit(Event{Type: EventRunStarted, RunID: runID, Source: source.Slug, Action: ActionCleanup})

	r.doCleanup(ctx, source, status)

	r.finishRun(ctx, runID, status)
	r.emitFinished(runID, source, status)
	return status
}

func (r *Runner) doImport(ctx context.Context, runID string, source Source, status *Status) {
	detected, err := r.detect(ctx, source)
	if err != nil {
		status.SetMessage(fmt.Sprintf("%s detection failed: %v", source.Name, err))
		return
	}
	if !detected {
		status.SetMessage(fmt.Sprintf("No %s data found to import.", source.Name))
		return
	}

	// Keys clone in declaration order. A failed key stops the run; keys
	// cloned before it stay applied, each one committed atomically.
	for _, spec := range source.CloneKeys {
		result, cloneErr := cloneMetaKey(ctx, r.DB, spec)
		if cloneErr != nil {
			if errors.Is(cloneErr, ErrInsufficientPrivileges) {
				status.SetMessage(privilegeRemediation)
				return
			}
			status.SetMessage(fmt.Sprintf("%s import failed on %s: %v", source.Name, spec.OldKey, cloneErr))
			return
		}
		r.emit(Event{
			Type:   EventKeyCloned,
			RunID:  runID,
			Source: source.Slug,
			Action: ActionImport,
			OldKey: result.OldKey,
			Field:  result.Field,
			Staged: result.Staged,
			Copied: result.Copied,
		})
	}

	status.SetStatus(true)

	if source.Transform == nil {
		return
	}

	warnings, transformErr := source.Transform(ctx, &TransformContext{Meta: r.Meta, Store: r.MetaStore})
	if transformErr != nil {
		warnings = append(warnings, fmt.Sprintf("%s: %v", source.TransformLabel, transformErr))
	}
	status.MarkPartial(warnings...)
	r.emit(Event{
		Type:     EventTransformed,
		RunID:    runID,
		Source:   source.Slug,
		Action:   ActionImport,
		Label:    source.TransformLabel,
		Warnings: status.Warnings,
	})
}

func (r *Runner) doCleanup(ctx context.Context, source Source, status *Status) {
	detected, err := r.detect(ctx, source)
	if err != nil {
		status.SetMessage(fmt.Sprintf("%s detection failed: %v", source.Name, err))
		return
	}
	if !detected {
		status.SetMessage(fmt.Sprintf("No %s data found to clean up.", source.Name))
		return
	}

	deleted, err := r.MetaStore.DeleteMatching(ctx, source.cleanupPatterns()...)
	if err != nil {
		status.SetMessage(fmt.Sprintf("%s cleanup failed: %v. Check database permissions and retry.", source.Name, err))
		return
	}

	status.SetStatus(true).SetMessage(fmt.Sprintf("Removed %d %s records.", deleted, source.Name))
}

func (r *Runner) ready(source Source) error {
	if r == nil || r.DB == nil || r.Meta == nil || r.MetaStore == nil {
		return fmt.Errorf("importer is not configured")
	}
	return source.Validate()
}

func (r *Runner) detect(ctx context.Context, source Source) (bool, error) {
	count, err := r.MetaStore.CountMatching(ctx, source.DetectPattern)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// startRun opens a run-history row. History is bookkeeping; failures here
// never block the operation itself.
func (r *Runner) startRun(ctx context.Context, source Source, action Action) string {
	if r.Runs == nil {
		return ""
	}
	run, err := r.Runs.Start(ctx, store.StartImportRunInput{
		Source: source.Slug,
		Action: string(action),
	})
	if err != nil {
		return ""
	}
	return run.ID
}

func (r *Runner) finishRun(ctx context.Context, runID string, status *Status) {
	if r.Runs == nil || runID == "" {
		return
	}
	_, _ = r.Runs.Finish(ctx, store.FinishImportRunInput{
		ID:       runID,
		Status:   runStatusFor(status),
		Success:  status.Success,
		Partial:  status.Partial,
		Message:  status.Msg(),
		Warnings: status.Warnings,
	})
}

func runStatusFor(status *Status) store.ImportRunStatus {
	switch {
	case !status.Success:
		return store.ImportRunStatusFailed
	case status.Partial:
		return store.ImportRunStatusPartial
	default:
		return store.ImportRunStatusCompleted
	}
}

func (r *Runner) emit(event Event) {
	if r.Progress == nil {
		return
	}
	r.Progress.Emit(event)
}

func (r *Runner) emitFinished(runID string, source Source, status *Status) {
	r.emit(Event{
		Type:     EventRunFinished,
		RunID:    runID,
		Source:   source.Slug,
		Action:   status.Action,
		Success:  status.Success,
		Partial:  status.Partial,
		Warnings: status.Warnings,
		Message:  status.Msg(),
	})
}
