package engine

import (
	"context"
	"time"

	"github.com/vantara-media/bastion/internal/config"
)

// Breach response actions.
const (
	ActionTerminate = "terminate"
	ActionDegrade   = "degrade"
	ActionWarning   = "warning"
)

// ReasonSecurityViolation is the termination reason recorded when the
// immediate strategy fires.
const ReasonSecurityViolation = "Security violation detected"

// BreachResponse is the outcome of the breach-response policy for one
// unsafe status check.
type BreachResponse struct {
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	SessionID string    `json:"sessionId"`
	Threats   []Threat  `json:"threats,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BreachNotification is the payload delivered to the configured
// notification endpoint on breach.
type BreachNotification struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Threats   []Threat  `json:"threats"`
	Action    string    `json:"action"`
}

// Notifier delivers breach notifications to an external sink. Delivery
// is awaited for ordering but failure never suppresses the configured
// blocking action.
type Notifier interface {
	NotifyBreach(ctx context.Context, n BreachNotification) error
}

// respond dispatches on the configured blocking strategy. The policy is
// a pure function of the strategy plus the session mutation done by
// terminate: keeping detection ("did a breach occur") separate from
// response ("what do we do about it") keeps the policy swappable.
//
// Unrecognized strategy values fall back to immediate; Config.Validate
// rejects them at construction, so the fallback is unreachable in
// practice.
func (e *Engine) respond(sessionID string, threats []Threat, now time.Time) *BreachResponse {
	switch e.cfg.BlockingStrategy {
	case config.StrategyDegraded:
		// Quality degradation is signaled to the caller only; the
		// session remains active.
		return &BreachResponse{
			Action:    ActionDegrade,
			SessionID: sessionID,
			Timestamp: now,
		}
	case config.StrategyWarning:
		return &BreachResponse{
			Action:    ActionWarning,
			SessionID: sessionID,
			Threats:   threats,
			Timestamp: now,
		}
	case config.StrategyImmediate:
		fallthrough
	default:
		e.terminate(sessionID, ReasonSecurityViolation, now)
		return &BreachResponse{
			Action:    ActionTerminate,
			Reason:    ReasonSecurityViolation,
			SessionID: sessionID,
			Timestamp: now,
		}
	}
}
