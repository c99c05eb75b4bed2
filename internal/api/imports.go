package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/searchlightseo/searchlight/internal/store"
)

type importRunResponse struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Action     string   `json:"action"`
	Status     string   `json:"status"`
	Success    bool     `json:"success"`
	Partial    bool     `json:"partial"`
	Message    string   `json:"message,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	StartedAt  string   `json:"started_at"`
	FinishedAt *string  `json:"finished_at,omitempty"`
}

func handleListImportRuns(db *sql.DB) http.HandlerFunc {
	runStore := store.NewImportRunStore(db)

	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				sendJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		runs, err := runStore.ListRecent(r.Context(), limit)
		if err != nil {
			sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list import runs"})
			return
		}

		payload := make([]importRunResponse, 0, len(runs))
		for _, run := range runs {
			item := importRunResponse{
				ID:        run.ID,
				Source:    run.Source,
				Action:    run.Action,
				Status:    string(run.Status),
				Success:   run.Success,
				Partial:   run.Partial,
				Message:   run.Message,
				Warnings:  run.Warnings,
				StartedAt: run.StartedAt.Format(time.RFC3339),
			}
			if run.FinishedAt != nil {
				finished := run.FinishedAt.Format(time.RFC3339)
				item.FinishedAt = &finished
			}
			payload = append(payload, item)
		}

		sendJSON(w, http.StatusOK, map[string]any{"runs": payload})
	}
}
