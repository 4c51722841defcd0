// Package api exposes the HTTP interface: scan control, root selection,
// library queries, and maintenance operations.
package api

import (
	"log/slog"
	"net/http"

	"github.com/spindleworks/spindle/internal/api/middleware"
	"github.com/spindleworks/spindle/internal/auth"
	"github.com/spindleworks/spindle/internal/event"
	"github.com/spindleworks/spindle/internal/history"
	"github.com/spindleworks/spindle/internal/importer"
	"github.com/spindleworks/spindle/internal/selection"
	"github.com/spindleworks/spindle/internal/track"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	AuthService    *auth.Service
	Coordinator    *importer.Coordinator
	Selection      *selection.Model
	HistoryService *history.Service
	TrackStore     *track.Store
	Bus            *event.Bus
	Logger         *slog.Logger
	BasePath       string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	authService    *auth.Service
	coordinator    *importer.Coordinator
	selection      *selection.Model
	historyService *history.Service
	trackStore     *track.Store
	bus            *event.Bus
	logger         *slog.Logger
	basePath       string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		authService:    deps.AuthService,
		coordinator:    deps.Coordinator,
		selection:      deps.Selection,
		historyService: deps.HistoryService,
		trackStore:     deps.TrackStore,
		bus:            deps.Bus,
		logger:         deps.Logger,
		basePath:       deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	authMw := middleware.Auth(r.authService)
	mux := http.NewServeMux()
	bp := r.basePath

	// Public routes (no auth)
	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)

	// Scan control
	mux.HandleFunc("POST "+bp+"/api/v1/scan/run", wrapAuth(r.handleScanRun, authMw))
	mux.HandleFunc("GET "+bp+"/api/v1/scan/status", wrapAuth(r.handleScanStatus, authMw))
	mux.HandleFunc("POST "+bp+"/api/v1/scan/cancel", wrapAuth(r.handleScanCancel, authMw))

	// Root selection
	mux.HandleFunc("GET "+bp+"/api/v1/roots", wrapAuth(r.handleListRoots, authMw))
	mux.HandleFunc("POST "+bp+"/api/v1/roots/refresh", wrapAuth(r.handleRefreshRoots, authMw))
	mux.HandleFunc("POST "+bp+"/api/v1/roots/toggle", wrapAuth(r.handleToggleRoots, authMw))

	// Library
	mux.HandleFunc("GET "+bp+"/api/v1/tracks", wrapAuth(r.handleListTracks, authMw))
	mux.HandleFunc("GET "+bp+"/api/v1/library/export", wrapAuth(r.handleExportLibrary, authMw))
	mux.HandleFunc("DELETE "+bp+"/api/v1/library", wrapAuth(r.handleClearLibrary, authMw))

	// Apply logging to all requests
	return middleware.Logging(r.logger)(mux)
}

// wrapAuth wraps a handler function with auth middleware.
func wrapAuth(fn http.HandlerFunc, authMw func(http.Handler) http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authMw(fn).ServeHTTP(w, r)
	}
}
