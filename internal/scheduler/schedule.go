package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	ScheduleKindCron     = "cron"
	ScheduleKindInterval = "interval"
)

// ScheduleSpec describes when the detect watcher wakes up: a plain interval,
// or a cron expression evaluated in a timezone.
type ScheduleSpec struct {
	Kind     string
	CronExpr string
	Interval time.Duration
	Timezone string

	location     *time.Location
	cronSchedule cron.Schedule
}

// NormalizeDetectSchedule builds a ScheduleSpec. A non-empty cron expression
// wins over the interval.
func NormalizeDetectSchedule(cronExpr string, interval time.Duration, timezone string) (ScheduleSpec, error) {
	trimmedTimezone := strings.TrimSpace(timezone)
	if trimmedTimezone == "" {
		trimmedTimezone = "UTC"
	}
	location, err := time.LoadLocation(trimmedTimezone)
	if err != nil {
		return ScheduleSpec{}, fmt.Errorf("invalid timezone: %w", err)
	}

	spec := ScheduleSpec{
		Timezone: trimmedTimezone,
		location: location,
	}

	if trimmedExpr := strings.TrimSpace(cronExpr); trimmedExpr != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		parsed, parseErr := parser.Parse(trimmedExpr)
		if parseErr != nil {
			return ScheduleSpec{}, fmt.Errorf("invalid cron expression: %w", parseErr)
		}
		spec.Kind = ScheduleKindCron
		spec.CronExpr = trimmedExpr
		spec.cronSchedule = parsed
		return spec, nil
	}

	if interval <= 0 {
		return ScheduleSpec{}, fmt.Errorf("interval must be greater than zero")
	}
	spec.Kind = ScheduleKindInterval
	spec.Interval = interval
	return spec, nil
}

// ComputeNextRun returns the next wake time after now. lastRunAt anchors
// interval schedules so a slow run does not drift the cadence.
func ComputeNextRun(spec ScheduleSpec, now time.Time, lastRunAt *time.Time) (time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if spec.location == nil {
		location, err := time.LoadLocation(firstNonEmpty(strings.TrimSpace(spec.Timezone), "UTC"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone: %w", err)
		}
		spec.location = location
	}

	switch spec.Kind {
	case ScheduleKindInterval:
		if spec.Interval <= 0 {
			return time.Time{}, fmt.Errorf("interval schedule requires a positive interval")
		}
		base := now
		if lastRunAt != nil && !lastRunAt.IsZero() {
			base = lastRunAt.UTC()
		}
		next := base.Add(spec.Interval)
		if next.Before(now) {
			next = now.Add(spec.Interval)
		}
		return next, nil
	case ScheduleKindCron:
		if spec.cronSchedule == nil {
			if strings.TrimSpace(spec.CronExpr) == "" {
				return time.Time{}, fmt.Errorf("cron schedule requires cron expression")
			}
			parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
			parsed, err := parser.Parse(spec.CronExpr)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
			}
			spec.cronSchedule = parsed
		}

		reference := now
		if lastRunAt != nil && !lastRunAt.IsZero() && lastRunAt.UTC().After(reference) {
			reference = lastRunAt.UTC()
		}
		return spec.cronSchedule.Next(reference.In(spec.location)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule kind: %s", spec.Kind)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
