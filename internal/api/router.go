package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/searchlightseo/searchlight/internal/middleware"
	"github.com/searchlightseo/searchlight/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// NewRouter wires the admin API. The database handle and hub come from the
// caller; nothing here reaches for globals.
func NewRouter(db *sql.DB, hub *ws.Hub, adminToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(chimiddleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot)
	r.Handle("/ws", &ws.Handler{Hub: hub})

	importerHandler := NewImporterHandler(db, hub)
	metaHandler := NewMetaHandler(db)

	r.Get("/api/importers", importerHandler.ListImporters)
	r.Get("/api/imports", handleListImportRuns(db))
	r.Get("/api/meta/{entityID}", metaHandler.GetEntityMeta)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(adminToken))
		r.Post("/api/importers/{slug}/detect", importerHandler.DetectImporter)
		r.Post("/api/importers/{slug}/import", importerHandler.ImportImporter)
		r.Post("/api/importers/{slug}/cleanup", importerHandler.CleanupImporter)
		r.Put("/api/meta/{entityID}", metaHandler.PutEntityMeta)
		r.Delete("/api/meta/{entityID}", metaHandler.DeleteEntityMeta)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "Searchlight",
		"tagline": "SEO metadata for your content, imported from anywhere",
		"health":  "/health",
		"ws":      "/ws",
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
