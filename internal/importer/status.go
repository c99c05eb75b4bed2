// Package importer migrates competitor SEO metadata into the Searchlight
// namespace. Each supported product is described by a Source; a Runner
// executes detect, import and cleanup operations against the content_meta
// table and reports outcomes as Status values.
package importer

import (
	"fmt"
	"strings"
)

// Action identifies which importer operation a Status reports on.
type Action string

const (
	ActionDetect  Action = "detect"
	ActionImport  Action = "import"
	ActionCleanup Action = "cleanup"
)

// Status is the outcome of one importer operation. Success reflects the
// structural steps (detection, key clones, deletes); Partial marks a
// successful run whose best-effort steps left warnings behind. RunID names
// the run-history row when the runner records one, so callers can correlate
// the status with the run listing.
type Status struct {
	Action   Action
	RunID    string
	Success  bool
	Partial  bool
	Warnings []string

	message string
}

func NewStatus(action Action, success bool) *Status {
	return &Status{Action: action, Success: success}
}

// SetStatus sets the success flag and returns the status for chaining.
func (s *Status) SetStatus(success bool) *Status {
	s.Success = success
	return s
}

// SetMessage sets an explicit message and returns the status for chaining.
func (s *Status) SetMessage(message string) *Status {
	s.message = strings.TrimSpace(message)
	return s
}

// MarkPartial records warnings from best-effort steps without touching the
// success flag.
func (s *Status) MarkPartial(warnings ...string) *Status {
	for _, warning := range warnings {
		trimmed := strings.TrimSpace(warning)
		if trimmed == "" {
			continue
		}
		s.Warnings = append(s.Warnings, trimmed)
	}
	if len(s.Warnings) > 0 {
		s.Partial = true
	}
	return s
}

// Msg returns the explicit message when one was set, otherwise a default
// derived from the action and outcome.
func (s *Status) Msg() string {
	if s.message != "" {
		return s.message
	}
	if !s.Success {
		return fmt.Sprintf("%s failed.", ucfirst(string(s.Action)))
	}
	if s.Partial {
		return fmt.Sprintf("%s completed with warnings.", ucfirst(string(s.Action)))
	}
	return fmt.Sprintf("%s completed.", ucfirst(string(s.Action)))
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
