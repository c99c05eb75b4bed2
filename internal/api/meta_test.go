package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func metaColumns() []string {
	return []string{"meta_id", "entity_id", "meta_key", "meta_value"}
}

func TestGetEntityMetaFiltersForeignKeys(t *testing.T) {
	router, mock := newTestRouter(t, "")

	mock.ExpectQuery("(?s)SELECT meta_id, entity_id, meta_key, meta_value.*FROM content_meta.*WHERE entity_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(metaColumns()).
			AddRow(1, 42, "_searchlight_title", "Hello").
			AddRow(2, 42, "_seotk_title", "Competitor leftovers").
			AddRow(3, 42, "_searchlight_robots-noindex", "1"))

	req := httptest.NewRequest(http.MethodGet, "/api/meta/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entityMetaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, int64(42), resp.EntityID)
	require.Equal(t, map[string]string{
		"title":          "Hello",
		"robots-noindex": "1",
	}, resp.Fields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntityMetaRejectsBadEntityID(t *testing.T) {
	router, mock := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/meta/homepage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutEntityMetaSetsFields(t *testing.T) {
	router, mock := newTestRouter(t, "")

	mock.ExpectExec("(?s)UPDATE content_meta.*SET meta_value").
		WithArgs(int64(42), "_searchlight_title", "New title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("(?s)SELECT meta_id, entity_id, meta_key, meta_value.*FROM content_meta.*WHERE entity_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(metaColumns()).
			AddRow(1, 42, "_searchlight_title", "New title"))

	body := bytes.NewBufferString(`{"fields":{"title":"New title"}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/meta/42", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entityMetaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "New title", resp.Fields["title"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutEntityMetaDefaultValueClearsField(t *testing.T) {
	router, mock := newTestRouter(t, "")

	// Setting a field to its default deletes the backing row.
	mock.ExpectExec("(?s)DELETE FROM content_meta.*WHERE entity_id").
		WithArgs(int64(42), "_searchlight_metadesc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("(?s)SELECT meta_id, entity_id, meta_key, meta_value.*FROM content_meta.*WHERE entity_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(metaColumns()))

	body := bytes.NewBufferString(`{"fields":{"metadesc":""}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/meta/42", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entityMetaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Empty(t, resp.Fields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutEntityMetaRejectsUnknownField(t *testing.T) {
	router, mock := newTestRouter(t, "")

	body := bytes.NewBufferString(`{"fields":{"seo-magic":"on"}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/meta/42", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "unknown field: seo-magic", resp.Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntityMetaField(t *testing.T) {
	router, mock := newTestRouter(t, "")

	mock.ExpectExec("(?s)DELETE FROM content_meta.*WHERE entity_id").
		WithArgs(int64(42), "_searchlight_title").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/api/meta/42?field=title", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"deleted":"title"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntityMetaRequiresField(t *testing.T) {
	router, mock := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/meta/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
