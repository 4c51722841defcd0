package api

import (
	"encoding/json"
	"net/http"
)

// handleListRoots returns the selectable previously-scanned roots.
// GET /api/v1/roots
func (r *Router) handleListRoots(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": r.selection.Entries(),
	})
}

// handleRefreshRoots rebuilds the selection list from scan history. All
// entries come back unselected.
// POST /api/v1/roots/refresh
func (r *Router) handleRefreshRoots(w http.ResponseWriter, req *http.Request) {
	if err := r.selection.Refresh(req.Context()); err != nil {
		r.logger.Error("refreshing selection", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": r.selection.Entries(),
	})
}

// handleToggleRoots updates selection state: a single path, or all entries
// at once.
// POST /api/v1/roots/toggle
func (r *Router) handleToggleRoots(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Path     string `json:"path"`
		All      bool   `json:"all"`
		Selected bool   `json:"selected"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case body.All && body.Path != "":
		writeError(w, http.StatusBadRequest, "path and all are mutually exclusive")
		return
	case body.All:
		r.selection.ToggleAll(body.Selected)
	case body.Path != "":
		if !r.selection.SetSelected(body.Path, body.Selected) {
			writeError(w, http.StatusNotFound, "no such root")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "path or all is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": r.selection.Entries(),
	})
}
