package importer

import (
	"fmt"
	"io"
)

type EventType string

const (
	EventRunStarted  EventType = "run_started"
	EventKeyCloned   EventType = "key_cloned"
	EventTransformed EventType = "transformed"
	EventRunFinished EventType = "run_finished"
)

// Event is one progress notification from a Runner. Events are safe to
// serialize as-is for the websocket feed.
type Event struct {
	Type   EventType `json:"type"`
	RunID  string    `json:"run_id,omitempty"`
	Source string    `json:"source"`
	Action Action    `json:"action"`

	OldKey string `json:"old_key,omitempty"`
	Field  string `json:"field,omitempty"`
	Staged int64  `json:"staged,omitempty"`
	Copied int64  `json:"copied,omitempty"`

	Label    string   `json:"label,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Success bool   `json:"success,omitempty"`
	Partial bool   `json:"partial,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProgressSink receives progress events during a run. Implementations must
// not block; the runner calls Emit inline.
type ProgressSink interface {
	Emit(event Event)
}

// WriterSink prints progress lines to a writer. The CLI uses it for live
// output.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Emit(event Event) {
	if s.W == nil {
		return
	}
	switch event.Type {
	case EventRunStarted:
		switch event.Action {
		case ActionDetect:
			fmt.Fprintf(s.W, "🔍 Detecting %s data...\n", event.Source)
		case ActionCleanup:
			fmt.Fprintf(s.W, "🧹 Cleaning up %s data...\n", event.Source)
		default:
			fmt.Fprintf(s.W, "📦 Importing %s data...\n", event.Source)
		}
	case EventKeyCloned:
		fmt.Fprintf(s.W, "   ✅ %s → %s (%d of %d rows copied)\n", event.OldKey, event.Field, event.Copied, event.Staged)
	case EventTransformed:
		if len(event.Warnings) > 0 {
			fmt.Fprintf(s.W, "   ⚠️  %s (%d warnings)\n", event.Label, len(event.Warnings))
			return
		}
		fmt.Fprintf(s.W, "   ✅ %s\n", event.Label)
	case EventRunFinished:
		switch {
		case !event.Success:
			fmt.Fprintf(s.W, "❌ %s\n", event.Message)
		case event.Partial:
			fmt.Fprintf(s.W, "⚠️  %s\n", event.Message)
		default:
			fmt.Fprintf(s.W, "✅ %s\n", event.Message)
		}
	}
}
