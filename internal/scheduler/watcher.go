package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/searchlightseo/searchlight/internal/importer"
	"github.com/searchlightseo/searchlight/internal/ws"
)

const defaultDetectPollInterval = 15 * time.Minute

type DetectWatcherConfig struct {
	PollInterval time.Duration
	CronExpr     string
	Timezone     string
}

// DetectWatcher re-runs competitor-data detection on a schedule and
// broadcasts availability over the hub: a full snapshot on the first pass,
// then only changes.
type DetectWatcher struct {
	Runner   *importer.Runner
	Registry *importer.Registry
	Hub      *ws.Hub
	Config   DetectWatcherConfig
	Now      func() time.Time
	Logf     func(string, ...any)

	schedule ScheduleSpec
	lastSeen map[string]bool
}

type availabilityEvent struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Name      string `json:"name"`
	Detected  bool   `json:"detected"`
	CheckedAt string `json:"checked_at"`
}

func NewDetectWatcher(db *sql.DB, hub *ws.Hub, cfg DetectWatcherConfig) (*DetectWatcher, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultDetectPollInterval
	}

	schedule, err := NormalizeDetectSchedule(cfg.CronExpr, cfg.PollInterval, cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid detect watch schedule: %w", err)
	}

	return &DetectWatcher{
		Runner:   importer.NewRunner(db),
		Registry: importer.DefaultRegistry(),
		Hub:      hub,
		Config:   cfg,
		Now: func() time.Time {
			return time.Now().UTC()
		},
		schedule: schedule,
		lastSeen: make(map[string]bool),
	}, nil
}

// Start loops until the context is cancelled.
func (w *DetectWatcher) Start(ctx context.Context) {
	for {
		if _, err := w.RunOnce(ctx); err != nil && w.Logf != nil {
			w.Logf("detect watcher run failed: %v", err)
		}

		now := w.now()
		next, err := ComputeNextRun(w.schedule, now, &now)
		if err != nil {
			if w.Logf != nil {
				w.Logf("detect watcher schedule error: %v", err)
			}
			return
		}
		if err := sleepWithContext(ctx, next.Sub(now)); err != nil {
			return
		}
	}
}

// RunOnce checks every registered source and reports how many availability
// events it broadcast.
func (w *DetectWatcher) RunOnce(ctx context.Context) (int, error) {
	if w == nil || w.Runner == nil || w.Registry == nil {
		return 0, fmt.Errorf("detect watcher is not configured")
	}

	changed := 0
	for _, source := range w.Registry.All() {
		detected, err := w.Runner.Detect(ctx, source)
		if err != nil {
			return changed, fmt.Errorf("detection failed for %s: %w", source.Slug, err)
		}

		previous, seen := w.lastSeen[source.Slug]
		w.lastSeen[source.Slug] = detected
		if seen && previous == detected {
			continue
		}

		changed++
		w.broadcastAvailability(source, detected)
	}

	return changed, nil
}

func (w *DetectWatcher) broadcastAvailability(source importer.Source, detected bool) {
	if w.Hub == nil {
		return
	}

	payload, err := json.Marshal(availabilityEvent{
		Type:      "source_availability",
		Source:    source.Slug,
		Name:      source.Name,
		Detected:  detected,
		CheckedAt: w.now().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	w.Hub.Broadcast(payload)
}

func (w *DetectWatcher) now() time.Time {
	if w.Now == nil {
		return time.Now().UTC()
	}
	return w.Now().UTC()
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
