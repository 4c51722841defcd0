package api

import (
	"encoding/json"
	"net/http"
)

// handleScanRun starts an import over explicit paths or the current selection.
// POST /api/v1/scan/run
func (r *Router) handleScanRun(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Paths        []string `json:"paths"`
		UseSelection bool     `json:"use_selection"`
	}
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	dirs := body.Paths
	if body.UseSelection {
		if len(dirs) > 0 {
			writeError(w, http.StatusBadRequest, "paths and use_selection are mutually exclusive")
			return
		}
		dirs = r.selection.SelectedPaths()
	}
	if len(dirs) == 0 {
		writeError(w, http.StatusBadRequest, "no directories to scan")
		return
	}

	run, err := r.coordinator.Run(req.Context(), dirs)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, run)
}

// handleScanStatus returns the current or most recent run status.
// GET /api/v1/scan/status
func (r *Router) handleScanStatus(w http.ResponseWriter, req *http.Request) {
	status := r.coordinator.Status()
	if status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleScanCancel requests cancellation of the active run. Idempotent: a
// cancel with no active run is still a 200.
// POST /api/v1/scan/cancel
func (r *Router) handleScanCancel(w http.ResponseWriter, req *http.Request) {
	r.coordinator.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancel requested"})
}
