package importer

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

const testDBURLKey = "SEARCHLIGHT_TEST_DATABASE_URL"

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	connStr := os.Getenv(testDBURLKey)
	if connStr == "" {
		t.Skipf("set %s to a dedicated test database", testDBURLKey)
	}
	return connStr
}

func setupTestDatabase(t *testing.T, connStr string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	migrationsDir, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)

	m, err := migrate.New("file://"+migrationsDir, connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = m.Close()
	})

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func insertMetaRow(t *testing.T, db *sql.DB, entityID int64, key, value string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO content_meta (entity_id, meta_key, meta_value) VALUES ($1, $2, $3)",
		entityID,
		key,
		value,
	)
	require.NoError(t, err)
}

// getFieldValue reads the stored value for (entityID, fullKey), "" when no
// row exists.
func getFieldValue(t *testing.T, db *sql.DB, entityID int64, fullKey string) string {
	t.Helper()
	var value sql.NullString
	err := db.QueryRow(
		"SELECT meta_value FROM content_meta WHERE entity_id = $1 AND meta_key = $2 ORDER BY meta_id ASC LIMIT 1",
		entityID,
		fullKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	require.NoError(t, err)
	return value.String
}

func countKeyRows(t *testing.T, db *sql.DB, key string) int64 {
	t.Helper()
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM content_meta WHERE meta_key = $1", key).Scan(&count)
	require.NoError(t, err)
	return count
}

func countLikeRows(t *testing.T, db *sql.DB, pattern string) int64 {
	t.Helper()
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM content_meta WHERE meta_key LIKE $1", pattern).Scan(&count)
	require.NoError(t, err)
	return count
}

func countAllRows(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM content_meta").Scan(&count)
	require.NoError(t, err)
	return count
}
