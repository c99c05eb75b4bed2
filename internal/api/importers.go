package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/searchlightseo/searchlight/internal/importer"
	"github.com/searchlightseo/searchlight/internal/store"
	"github.com/searchlightseo/searchlight/internal/ws"
)

// ImporterHandler exposes the competitor-data importers over HTTP. Every
// operation runs synchronously; progress streams over the hub while the
// request is in flight.
type ImporterHandler struct {
	Runner   *importer.Runner
	Registry *importer.Registry
}

func NewImporterHandler(db *sql.DB, hub *ws.Hub) *ImporterHandler {
	runner := importer.NewRunner(db)
	runner.Runs = store.NewImportRunStore(db)
	runner.Progress = hubSink{hub: hub}

	return &ImporterHandler{
		Runner:   runner,
		Registry: importer.DefaultRegistry(),
	}
}

type importerSummary struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Detected bool   `json:"detected"`
}

type operationResponse struct {
	Action   string   `json:"action"`
	RunID    string   `json:"run_id,omitempty"`
	Success  bool     `json:"success"`
	Partial  bool     `json:"partial"`
	Warnings []string `json:"warnings,omitempty"`
	Message  string   `json:"message"`
}

func operationResponseFor(status *importer.Status) operationResponse {
	return operationResponse{
		Action:   string(status.Action),
		RunID:    status.RunID,
		Success:  status.Success,
		Partial:  status.Partial,
		Warnings: status.Warnings,
		Message:  status.Msg(),
	}
}

// ListImporters handles GET /api/importers. Detection runs live per source
// and is not recorded in run history.
func (h *ImporterHandler) ListImporters(w http.ResponseWriter, r *http.Request) {
	sources := h.Registry.All()
	importers := make([]importerSummary, 0, len(sources))
	for _, source := range sources {
		detected, err := h.Runner.Detect(r.Context(), source)
		if err != nil {
			sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to detect importer data"})
			return
		}
		importers = append(importers, importerSummary{
			Slug:     source.Slug,
			Name:     source.Name,
			Detected: detected,
		})
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{"importers": importers})
}

// DetectImporter handles POST /api/importers/{slug}/detect.
func (h *ImporterHandler) DetectImporter(w http.ResponseWriter, r *http.Request) {
	source, ok := h.lookupSource(w, r)
	if !ok {
		return
	}

	sendJSON(w, http.StatusOK, operationResponseFor(h.Runner.RunDetect(r.Context(), source)))
}

// ImportImporter handles POST /api/importers/{slug}/import.
func (h *ImporterHandler) ImportImporter(w http.ResponseWriter, r *http.Request) {
	source, ok := h.lookupSource(w, r)
	if !ok {
		return
	}

	sendJSON(w, http.StatusOK, operationResponseFor(h.Runner.RunImport(r.Context(), source)))
}

// CleanupImporter handles POST /api/importers/{slug}/cleanup.
func (h *ImporterHandler) CleanupImporter(w http.ResponseWriter, r *http.Request) {
	source, ok := h.lookupSource(w, r)
	if !ok {
		return
	}

	sendJSON(w, http.StatusOK, operationResponseFor(h.Runner.RunCleanup(r.Context(), source)))
}

func (h *ImporterHandler) lookupSource(w http.ResponseWriter, r *http.Request) (importer.Source, bool) {
	source, err := h.Registry.BySlug(chi.URLParam(r, "slug"))
	if err != nil {
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "unknown importer"})
		return importer.Source{}, false
	}
	return source, true
}
