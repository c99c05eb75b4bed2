package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/searchlightseo/searchlight/internal/api"
	"github.com/searchlightseo/searchlight/internal/automigrate"
	"github.com/searchlightseo/searchlight/internal/config"
	"github.com/searchlightseo/searchlight/internal/scheduler"
	"github.com/searchlightseo/searchlight/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if cfg.AutoMigrate {
		if err := automigrate.Run(db, migrationsDir()); err != nil {
			log.Fatalf("migrations: %v", err)
		}
	}

	hub := ws.NewHub()
	go hub.Run()

	if cfg.DetectWatch.Enabled {
		watcher, err := scheduler.NewDetectWatcher(db, hub, scheduler.DetectWatcherConfig{
			PollInterval: cfg.DetectWatch.PollInterval,
			CronExpr:     cfg.DetectWatch.CronExpr,
			Timezone:     cfg.DetectWatch.Timezone,
		})
		if err != nil {
			log.Fatalf("detect watcher: %v", err)
		}
		watcher.Logf = log.Printf
		go watcher.Start(context.Background())
	}

	log.Printf("🔦 Searchlight starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, api.NewRouter(db, hub, cfg.AdminToken)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func migrationsDir() string {
	if dir := strings.TrimSpace(os.Getenv("SEARCHLIGHT_MIGRATIONS_DIR")); dir != "" {
		return dir
	}
	return "migrations"
}
