package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vantara-media/bastion/internal/audit"
	"github.com/vantara-media/bastion/internal/engine"
	"go.uber.org/zap"
)

// handleInitialize implements POST /v1/sessions.
func (d *Dependencies) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: "Invalid JSON body"})
		return
	}

	result, err := d.Engine.Initialize(r.Context(), engine.SessionInfo(req.Info))
	if err != nil {
		d.Logger.Error("session initialization failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Error: "internal_error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStatus implements GET /v1/sessions/{session_id}/status.
func (d *Dependencies) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: "session_id is required"})
		return
	}

	status, err := d.Engine.CheckSecurityStatus(r.Context(), sessionID)
	if err != nil {
		d.Logger.Error("security status check failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Error: "internal_error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleTerminate implements POST /v1/sessions/{session_id}/terminate.
func (d *Dependencies) handleTerminate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: "session_id is required"})
		return
	}

	var req TerminateRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: "Invalid JSON body"})
		return
	}

	result, err := d.Engine.TerminateStream(r.Context(), sessionID, req.Reason)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: engine.InvalidSessionError})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Error: "internal_error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCleanup implements POST /v1/sessions/{session_id}/cleanup.
func (d *Dependencies) handleCleanup(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Error: "bad_request", Message: "session_id is required"})
		return
	}
	ok := d.Engine.Cleanup(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, CleanupResponse{Success: ok})
}

// handleListEvents implements GET /v1/events. Requires the ClickHouse
// reader; returns 503 when event storage is not configured.
func (d *Dependencies) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if d.Events == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Error: "unavailable", Message: "event storage not configured"})
		return
	}

	q := r.URL.Query()
	params := audit.ListEventsParams{
		SessionID: q.Get("session_id"),
		Page:      intQuery(q.Get("page"), 1),
		PageSize:  intQuery(q.Get("page_size"), 100),
	}
	if t := q.Get("event_type"); t != "" {
		params.EventType = &t
	}

	rows, total, err := d.Events.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("event listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Error: "internal_error", Message: err.Error()})
		return
	}

	events := make([]EventResp, 0, len(rows))
	for _, row := range rows {
		events = append(events, EventResp{
			Timestamp: row.Timestamp,
			SessionID: row.SessionID,
			EventType: row.EventType,
			Service:   row.Service,
			Data:      row.Data,
		})
	}
	writeJSON(w, http.StatusOK, EventListResp{
		Events:   events,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func intQuery(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
