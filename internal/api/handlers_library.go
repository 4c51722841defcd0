package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/spindleworks/spindle/internal/event"
	"github.com/spindleworks/spindle/internal/importer"
)

// handleListTracks returns imported tracks with limit/offset paging.
// GET /api/v1/tracks
func (r *Router) handleListTracks(w http.ResponseWriter, req *http.Request) {
	limit := parseIntParam(req, "limit", 100)
	offset := parseIntParam(req, "offset", 0)
	if limit < 1 || limit > 1000 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}
	if offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	tracks, err := r.trackStore.List(req.Context(), limit, offset)
	if err != nil {
		r.logger.Error("listing tracks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := r.trackStore.Count(req.Context())
	if err != nil {
		r.logger.Error("counting tracks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tracks": tracks,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleExportLibrary returns the whole library as a single JSON document.
// GET /api/v1/library/export
func (r *Router) handleExportLibrary(w http.ResponseWriter, req *http.Request) {
	tracks, err := r.trackStore.List(req.Context(), 0, 0)
	if err != nil {
		r.logger.Error("exporting tracks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	roots, err := r.historyService.List(req.Context())
	if err != nil {
		r.logger.Error("exporting roots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="spindle-export.json"`)
	writeJSON(w, http.StatusOK, map[string]any{
		"exported_at":   time.Now().UTC().Format(time.RFC3339),
		"tracks":        tracks,
		"scanned_roots": roots,
	})
}

// handleClearLibrary deletes all tracks and scan history. The body must carry
// an explicit confirmation; a running import blocks the clear.
// DELETE /api/v1/library
func (r *Router) handleClearLibrary(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || !body.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation required: send {\"confirm\":true}")
		return
	}

	if status := r.coordinator.Status(); status != nil && status.Status == importer.StatusRunning {
		writeError(w, http.StatusConflict, "import in progress")
		return
	}

	if err := r.historyService.DeleteAll(req.Context()); err != nil {
		r.logger.Error("clearing library", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := r.selection.Refresh(req.Context()); err != nil {
		r.logger.Warn("refreshing selection after clear", "error", err)
	}

	r.bus.Publish(event.Event{Type: event.HistoryCleared})
	r.logger.Info("library cleared")

	writeJSON(w, http.StatusOK, map[string]string{"status": "library cleared"})
}

func parseIntParam(req *http.Request, name string, def int) int {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
