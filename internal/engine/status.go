package engine

import "time"

// InvalidSessionError is the error string carried by the degenerate
// SecurityStatus returned for unknown session ids.
const InvalidSessionError = "Invalid session"

// SecurityStatus is the verdict artifact of one security check.
// Secure is true iff Threats is empty. A non-empty Error marks the
// degenerate unknown-session shape: the caller erred, nothing was
// detected and nothing was mutated.
type SecurityStatus struct {
	Secure    bool      `json:"secure"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId,omitempty"`
	Threats   []Threat  `json:"threats,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// InitResult is returned by Initialize on success.
type InitResult struct {
	SessionID       string         `json:"sessionId"`
	SecurityToken   string         `json:"securityToken"`
	FingerprintData map[string]any `json:"fingerprintData,omitempty"`
}

// TerminationResult is returned when a session is terminated.
type TerminationResult struct {
	Action    string        `json:"action"` // always "terminate"
	Reason    string        `json:"reason"`
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// invalidSession builds the degenerate status for an unknown id.
func invalidSession(now time.Time) *SecurityStatus {
	return &SecurityStatus{
		Secure:    false,
		Timestamp: now,
		Error:     InvalidSessionError,
	}
}
