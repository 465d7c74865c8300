package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vantara-media/bastion/internal/audit"
	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
	"github.com/vantara-media/bastion/internal/store"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Engine   *engine.Engine
	Store    *store.Store  // nil when no credential store is configured
	Events   *audit.Reader // nil when ClickHouse is unavailable
	Cfg      *config.Config
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// NewRouter builds the HTTP mux with all routes wired up. Method
// patterns make the mux answer 405 for wrong verbs on known paths.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Session operations (auth required)
	mux.HandleFunc("POST /v1/sessions", deps.authMiddleware(deps.handleInitialize))
	mux.HandleFunc("GET /v1/sessions/{session_id}/status", deps.authMiddleware(deps.handleStatus))
	mux.HandleFunc("POST /v1/sessions/{session_id}/terminate", deps.authMiddleware(deps.handleTerminate))
	mux.HandleFunc("POST /v1/sessions/{session_id}/cleanup", deps.authMiddleware(deps.handleCleanup))

	// Security event listing (auth required)
	mux.HandleFunc("GET /v1/events", deps.authMiddleware(deps.handleListEvents))

	// Operational endpoints
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
