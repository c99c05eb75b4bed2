package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/searchlightseo/searchlight/internal/meta"
	"github.com/searchlightseo/searchlight/internal/store"
)

// MetaHandler exposes an entity's Searchlight fields for reading and manual
// editing.
type MetaHandler struct {
	Service *meta.Service
}

func NewMetaHandler(db *sql.DB) *MetaHandler {
	return &MetaHandler{Service: meta.NewService(store.NewMetaStore(db))}
}

type entityMetaResponse struct {
	EntityID int64             `json:"entity_id"`
	Fields   map[string]string `json:"fields"`
}

type putEntityMetaRequest struct {
	Fields map[string]string `json:"fields"`
}

// GetEntityMeta handles GET /api/meta/{entityID}.
func (h *MetaHandler) GetEntityMeta(w http.ResponseWriter, r *http.Request) {
	entityID, ok := entityIDParam(w, r)
	if !ok {
		return
	}

	fields, err := h.Service.ListValues(r.Context(), entityID)
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load meta values"})
		return
	}

	sendJSON(w, http.StatusOK, entityMetaResponse{EntityID: entityID, Fields: fields})
}

// PutEntityMeta handles PUT /api/meta/{entityID}. Setting a field to its
// default value clears it.
func (h *MetaHandler) PutEntityMeta(w http.ResponseWriter, r *http.Request) {
	entityID, ok := entityIDParam(w, r)
	if !ok {
		return
	}

	var req putEntityMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Fields) == 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "fields is required"})
		return
	}

	for field, value := range req.Fields {
		if err := h.Service.SetValue(r.Context(), entityID, field, value); err != nil {
			if errors.Is(err, meta.ErrUnknownField) {
				sendJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown field: " + field})
				return
			}
			sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to set " + field})
			return
		}
	}

	fields, err := h.Service.ListValues(r.Context(), entityID)
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load meta values"})
		return
	}

	sendJSON(w, http.StatusOK, entityMetaResponse{EntityID: entityID, Fields: fields})
}

// DeleteEntityMeta handles DELETE /api/meta/{entityID}?field=title.
func (h *MetaHandler) DeleteEntityMeta(w http.ResponseWriter, r *http.Request) {
	entityID, ok := entityIDParam(w, r)
	if !ok {
		return
	}

	field := r.URL.Query().Get("field")
	if field == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "field query parameter is required"})
		return
	}

	if err := h.Service.Delete(r.Context(), entityID, field); err != nil {
		if errors.Is(err, meta.ErrUnknownField) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown field: " + field})
			return
		}
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete " + field})
		return
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{"deleted": field})
}

func entityIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "entity id must be a positive integer"})
		return 0, false
	}
	return entityID, true
}
