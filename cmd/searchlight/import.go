package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/searchlightseo/searchlight/internal/importer"
	"github.com/searchlightseo/searchlight/internal/store"
)

var openImportDatabase = openImportDatabaseFromEnv
var listRecentImportRuns = func(ctx context.Context, db *sql.DB, limit int) ([]store.ImportRun, error) {
	return store.NewImportRunStore(db).ListRecent(ctx, limit)
}
var confirmImportCleanup = func(source importer.Source) bool {
	answer := prompt(fmt.Sprintf("Delete all %s records? This cannot be undone. (y/N): ", source.Name))
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

type importListOptions struct {
	JSONOut bool
}

type importSourceOptions struct {
	Slug    string
	JSONOut bool
}

type importRunOptions struct {
	Slug    string
	DryRun  bool
	JSONOut bool
}

type importCleanupOptions struct {
	Slug    string
	Yes     bool
	JSONOut bool
}

type importStatusOptions struct {
	Limit   int
	JSONOut bool
}

func handleImport(args []string) {
	const importUsage = "usage: searchlight import <list|detect|run|cleanup|status> ..."
	if len(args) == 0 {
		fmt.Println(importUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		opts, err := parseImportListOptions(args[1:])
		if err != nil {
			die(err.Error())
		}
		dieIf(runImportList(os.Stdout, opts))
	case "detect":
		opts, err := parseImportSourceOptions("import detect", args[1:])
		if err != nil {
			die(err.Error())
		}
		dieIf(runImportDetect(os.Stdout, opts))
	case "run":
		opts, err := parseImportRunOptions(args[1:])
		if err != nil {
			die(err.Error())
		}
		dieIf(runImportRun(os.Stdout, opts))
	case "cleanup":
		opts, err := parseImportCleanupOptions(args[1:])
		if err != nil {
			die(err.Error())
		}
		dieIf(runImportCleanup(os.Stdout, opts))
	case "status":
		opts, err := parseImportStatusOptions(args[1:])
		if err != nil {
			die(err.Error())
		}
		dieIf(runImportStatus(os.Stdout, opts))
	default:
		fmt.Println(importUsage)
		os.Exit(1)
	}
}

func splitSourceArg(name string, args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("usage: searchlight %s <source> [flags]", name)
	}
	return strings.TrimSpace(args[0]), args[1:], nil
}

func parseImportListOptions(args []string) (importListOptions, error) {
	flags := flag.NewFlagSet("import list", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return importListOptions{}, err
	}
	if len(flags.Args()) > 0 {
		return importListOptions{}, fmt.Errorf("unexpected positional argument(s): %s", strings.Join(flags.Args(), " "))
	}
	return importListOptions{JSONOut: *jsonOut}, nil
}

func parseImportSourceOptions(name string, args []string) (importSourceOptions, error) {
	slug, rest, err := splitSourceArg(name, args)
	if err != nil {
		return importSourceOptions{}, err
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(rest); err != nil {
		return importSourceOptions{}, err
	}
	if len(flags.Args()) > 0 {
		return importSourceOptions{}, fmt.Errorf("unexpected positional argument(s): %s", strings.Join(flags.Args(), " "))
	}
	return importSourceOptions{Slug: slug, JSONOut: *jsonOut}, nil
}

func parseImportRunOptions(args []string) (importRunOptions, error) {
	slug, rest, err := splitSourceArg("import run", args)
	if err != nil {
		return importRunOptions{}, err
	}

	flags := flag.NewFlagSet("import run", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dryRun := flags.Bool("dry-run", false, "show what the import would copy without writing")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(rest); err != nil {
		return importRunOptions{}, err
	}
	if len(flags.Args()) > 0 {
		return importRunOptions{}, fmt.Errorf("unexpected positional argument(s): %s", strings.Join(flags.Args(), " "))
	}
	return importRunOptions{Slug: slug, DryRun: *dryRun, JSONOut: *jsonOut}, nil
}

func parseImportCleanupOptions(args []string) (importCleanupOptions, error) {
	slug, rest, err := splitSourceArg("import cleanup", args)
	if err != nil {
		return importCleanupOptions{}, err
	}

	flags := flag.NewFlagSet("import cleanup", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	yes := flags.Bool("yes", false, "skip the confirmation prompt")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(rest); err != nil {
		return importCleanupOptions{}, err
	}
	if len(flags.Args()) > 0 {
		return importCleanupOptions{}, fmt.Errorf("unexpected positional argument(s): %s", strings.Join(flags.Args(), " "))
	}
	return importCleanupOptions{Slug: slug, Yes: *yes, JSONOut: *jsonOut}, nil
}

func parseImportStatusOptions(args []string) (importStatusOptions, error) {
	flags := flag.NewFlagSet("import status", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	limit := flags.Int("limit", 20, "number of runs to show")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return importStatusOptions{}, err
	}
	if len(flags.Args()) > 0 {
		return importStatusOptions{}, fmt.Errorf("unexpected positional argument(s): %s", strings.Join(flags.Args(), " "))
	}
	if *limit <= 0 {
		return importStatusOptions{}, fmt.Errorf("--limit must be a positive integer")
	}
	return importStatusOptions{Limit: *limit, JSONOut: *jsonOut}, nil
}

func runImportList(out io.Writer, opts importListOptions) error {
	db, err := openImportDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runner := newImportRunner(db)

	type sourceRow struct {
		Slug     string `json:"slug"`
		Name     string `json:"name"`
		Detected bool   `json:"detected"`
	}

	rows := make([]sourceRow, 0, 4)
	for _, source := range importer.DefaultRegistry().All() {
		detected, err := runner.Detect(context.Background(), source)
		if err != nil {
			return fmt.Errorf("detection failed for %s: %w", source.Slug, err)
		}
		rows = append(rows, sourceRow{Slug: source.Slug, Name: source.Name, Detected: detected})
	}

	if opts.JSONOut {
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	fmt.Fprintln(out, "Sources:")
	for _, row := range rows {
		presence := "no data"
		if row.Detected {
			presence = "data found"
		}
		fmt.Fprintf(out, "  %-12s %-12s %s\n", row.Slug, row.Name, presence)
	}
	return nil
}

func runImportDetect(out io.Writer, opts importSourceOptions) error {
	source, err := importer.DefaultRegistry().BySlug(opts.Slug)
	if err != nil {
		return err
	}

	db, err := openImportDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	status := newImportRunner(db).RunDetect(context.Background(), source)
	return renderImportStatus(out, status, opts.JSONOut)
}

func runImportRun(out io.Writer, opts importRunOptions) error {
	source, err := importer.DefaultRegistry().BySlug(opts.Slug)
	if err != nil {
		return err
	}

	db, err := openImportDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runner := newImportRunner(db)

	if opts.DryRun {
		keys, err := runner.DryRunImport(context.Background(), source)
		if err != nil {
			return err
		}
		renderImportDryRun(out, source, keys)
		return nil
	}

	if opts.JSONOut {
		status := runner.RunImport(context.Background(), source)
		return renderImportStatus(out, status, true)
	}

	// Live progress streams per-key lines and the finish line to out; only
	// warning details are printed afterwards.
	runner.Progress = importer.WriterSink{W: out}
	status := runner.RunImport(context.Background(), source)
	if !status.Success {
		return errors.New(status.Msg())
	}
	for _, warning := range status.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", warning)
	}
	return nil
}

func runImportCleanup(out io.Writer, opts importCleanupOptions) error {
	source, err := importer.DefaultRegistry().BySlug(opts.Slug)
	if err != nil {
		return err
	}

	if !opts.Yes && !confirmImportCleanup(source) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	db, err := openImportDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	status := newImportRunner(db).RunCleanup(context.Background(), source)
	return renderImportStatus(out, status, opts.JSONOut)
}

func runImportStatus(out io.Writer, opts importStatusOptions) error {
	db, err := openImportDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := listRecentImportRuns(context.Background(), db, opts.Limit)
	if err != nil {
		return err
	}

	if opts.JSONOut {
		type runRow struct {
			ID         string   `json:"id"`
			Source     string   `json:"source"`
			Action     string   `json:"action"`
			Status     string   `json:"status"`
			Success    bool     `json:"success"`
			Partial    bool     `json:"partial"`
			Message    string   `json:"message,omitempty"`
			Warnings   []string `json:"warnings,omitempty"`
			StartedAt  string   `json:"started_at"`
			FinishedAt string   `json:"finished_at,omitempty"`
		}

		rows := make([]runRow, 0, len(runs))
		for _, run := range runs {
			row := runRow{
				ID:        run.ID,
				Source:    run.Source,
				Action:    run.Action,
				Status:    string(run.Status),
				Success:   run.Success,
				Partial:   run.Partial,
				Message:   run.Message,
				Warnings:  run.Warnings,
				StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
			}
			if run.FinishedAt != nil {
				row.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
			}
			rows = append(rows, row)
		}

		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No import runs recorded.")
		return nil
	}

	fmt.Fprintln(out, "Recent import runs:")
	for _, run := range runs {
		line := fmt.Sprintf("  %s  %-11s %-8s %s",
			run.StartedAt.UTC().Format("2006-01-02 15:04"), run.Source, run.Action, string(run.Status))
		if strings.TrimSpace(run.Message) != "" {
			line += " - " + run.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func renderImportDryRun(out io.Writer, source importer.Source, keys []importer.DryRunKey) {
	fmt.Fprintf(out, "Dry run: searchlight import run %s\n", source.Slug)
	for _, key := range keys {
		fmt.Fprintf(out, "  %s -> %s: %d row(s), %d new\n", key.OldKey, key.Field, key.Rows, key.New)
	}
	if source.Transform != nil {
		fmt.Fprintf(out, "Transform (%s) runs after cloning and is not previewed.\n", source.TransformLabel)
	}
	fmt.Fprintln(out, "Nothing was written.")
}

func renderImportStatus(out io.Writer, status *importer.Status, jsonOut bool) error {
	if jsonOut {
		payload, err := json.MarshalIndent(map[string]any{
			"action":   status.Action,
			"run_id":   status.RunID,
			"success":  status.Success,
			"partial":  status.Partial,
			"warnings": status.Warnings,
			"message":  status.Msg(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(payload))
		if !status.Success {
			return fmt.Errorf("%s failed", status.Action)
		}
		return nil
	}

	if !status.Success {
		return errors.New(status.Msg())
	}

	fmt.Fprintln(out, status.Msg())
	for _, warning := range status.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", warning)
	}
	return nil
}

func newImportRunner(db *sql.DB) *importer.Runner {
	runner := importer.NewRunner(db)
	runner.Runs = store.NewImportRunStore(db)
	return runner
}

func openImportDatabaseFromEnv() (*sql.DB, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for searchlight import commands")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
