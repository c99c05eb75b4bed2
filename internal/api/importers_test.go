package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func sampleTime() time.Time {
	return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
}

func expectRunRecorded(mock sqlmock.Sqlmock, source, action string) {
	runColumns := []string{"id", "source", "action", "status", "success", "partial", "message", "warnings", "started_at", "finished_at"}
	runID := "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	mock.ExpectQuery("INSERT INTO import_runs").
		WithArgs(sqlmock.AnyArg(), source, action, "running").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow(runID, source, action, "running", false, false, "", []byte("{}"), sampleTime(), nil))
}

func expectRunFinished(mock sqlmock.Sqlmock, source, action string) {
	runColumns := []string{"id", "source", "action", "status", "success", "partial", "message", "warnings", "started_at", "finished_at"}
	runID := "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	mock.ExpectQuery("UPDATE import_runs").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow(runID, source, action, "completed", true, false, "", []byte("{}"), sampleTime(), sampleTime()))
}

func TestListImportersReportsLiveDetection(t *testing.T) {
	router, mock := newTestRouter(t, "")

	expectCountMatching(mock, `\_seotk\_%`, 12)
	expectCountMatching(mock, `metapilot\_%`, 0)
	expectCountMatching(mock, `\_pageranger\_%`, 0)
	expectCountMatching(mock, `\_apex\_%`, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/importers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Importers []importerSummary `json:"importers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	require.Len(t, payload.Importers, 4)

	require.Equal(t, "seo-toolkit", payload.Importers[0].Slug)
	require.Equal(t, "SEO Toolkit", payload.Importers[0].Name)
	require.True(t, payload.Importers[0].Detected)
	require.Equal(t, "metapilot", payload.Importers[1].Slug)
	require.False(t, payload.Importers[1].Detected)
	require.Equal(t, "pageranger", payload.Importers[2].Slug)
	require.False(t, payload.Importers[2].Detected)
	require.Equal(t, "apex-seo", payload.Importers[3].Slug)
	require.True(t, payload.Importers[3].Detected)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImporterOperationUnknownSlug(t *testing.T) {
	router, mock := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/importers/rank-wizard/import", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "unknown importer", resp.Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportImporterReportsNoData(t *testing.T) {
	router, mock := newTestRouter(t, "")

	expectRunRecorded(mock, "pageranger", "import")
	expectCountMatching(mock, `\_pageranger\_%`, 0)
	expectRunFinished(mock, "pageranger", "import")

	req := httptest.NewRequest(http.MethodPost, "/api/importers/pageranger/import", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp operationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "import", resp.Action)
	require.False(t, resp.Success)
	require.Equal(t, "No PageRanger data found to import.", resp.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupImporterRemovesRecords(t *testing.T) {
	router, mock := newTestRouter(t, "")

	expectRunRecorded(mock, "metapilot", "cleanup")
	expectCountMatching(mock, `metapilot\_%`, 4)
	mock.ExpectExec("DELETE FROM content_meta WHERE").
		WithArgs(`metapilot\_%`, `mp\_seo\_%`).
		WillReturnResult(sqlmock.NewResult(0, 7))
	expectRunFinished(mock, "metapilot", "cleanup")

	req := httptest.NewRequest(http.MethodPost, "/api/importers/metapilot/cleanup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp operationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	require.Equal(t, "Removed 7 MetaPilot records.", resp.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}
