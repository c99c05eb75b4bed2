package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

type seedRow struct {
	entityID  int64
	metaKey   string
	metaValue string
}

// Demo rows shaped like the plugins Searchlight imports from, so a fresh
// database has something for detect/import to chew on.
var seedRows = []seedRow{
	{1, "_seotk_title", "Riverbend Ferry Timetable"},
	{1, "_seotk_description", "Every crossing, updated daily."},
	{1, "_seotk_noindex", "on"},
	{2, "_seotk_title", "Visit Riverbend"},
	{2, "_seotk_social", `{"title":"Riverbend on the river","description":"Plan your trip along the waterfront.","image":"https://cdn.riverbend.example/river.jpg"}`},
	{3, "metapilot_title", "Riverbend Market | Fresh Goods"},
	{3, "metapilot_description", "Stalls, produce, and river views."},
	{3, "metapilot_robots", "noindex,nofollow"},
	{3, "mp_seo_legacy_score", "71"},
	{4, "_pageranger_title", "Riverbank Trail Guide"},
	{4, "_pageranger_noindex", "yes"},
	{5, "_apex_page_title", "Riverbend Lodge Booking"},
	{5, "_apex_visibility", "hidden"},
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	inserted := 0
	for _, row := range seedRows {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM content_meta WHERE entity_id = $1 AND meta_key = $2)`,
			row.entityID, row.metaKey,
		).Scan(&exists)
		if err != nil {
			log.Fatal("Failed to check seed row: ", err)
		}
		if exists {
			continue
		}

		_, err = db.Exec(
			`INSERT INTO content_meta (entity_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
			row.entityID, row.metaKey, row.metaValue,
		)
		if err != nil {
			log.Fatal("Failed to seed content_meta: ", err)
		}
		inserted++
	}

	fmt.Printf("✅ Seeded %d demo meta rows (%d already present)\n", inserted, len(seedRows)-inserted)

	var total int64
	if err := db.QueryRow("SELECT COUNT(*) FROM content_meta").Scan(&total); err != nil {
		log.Fatal("Failed to verify: ", err)
	}
	fmt.Printf("✅ content_meta now holds %d rows\n", total)
}
