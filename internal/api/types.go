package api

import "time"

// InitRequest is the JSON body for POST /v1/sessions. Info is arbitrary
// caller metadata, passed through to the detectors.
type InitRequest struct {
	Info map[string]any `json:"info"`
}

// TerminateRequest is the JSON body for POST /v1/sessions/{id}/terminate.
type TerminateRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CleanupResponse is returned by POST /v1/sessions/{id}/cleanup.
type CleanupResponse struct {
	Success bool `json:"success"`
}

// EventResp is a persisted security event in the listing API.
type EventResp struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	EventType string    `json:"eventType"`
	Service   string    `json:"service,omitempty"`
	Data      string    `json:"data,omitempty"`
}

// EventListResp is the paginated event listing.
type EventListResp struct {
	Events   []EventResp `json:"events"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ErrorResp is the standard error response body.
type ErrorResp struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
