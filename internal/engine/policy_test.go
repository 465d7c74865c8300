package engine

import (
	"testing"
	"time"

	"github.com/vantara-media/bastion/internal/audit"
	"github.com/vantara-media/bastion/internal/config"
	"go.uber.org/zap"
)

func policyEngine(strategy string) *Engine {
	cfg := &config.Config{
		APIKey:           "test-key",
		ServiceName:      "default",
		BlockingStrategy: strategy,
		LoggingLevel:     config.LogDebug,
		Detectors:        config.DetectorsConfig{Timeout: time.Second},
	}
	events := audit.NewLogger(config.LogDebug, "default", &captureWriter{})
	return New(cfg, nil, events, nil, zap.NewNop())
}

func TestRespond_Immediate(t *testing.T) {
	e := policyEngine(config.StrategyImmediate)
	e.store.Insert(newActiveSession("s1"))

	resp := e.respond("s1", []Threat{{Type: KindVPN}}, time.Now())
	if resp.Action != ActionTerminate {
		t.Errorf("action = %s, want %s", resp.Action, ActionTerminate)
	}
	if resp.Reason != ReasonSecurityViolation {
		t.Errorf("reason = %q, want %q", resp.Reason, ReasonSecurityViolation)
	}
	s, _ := e.store.Get("s1")
	if s.Status != StatusTerminated {
		t.Errorf("session status = %s, want terminated", s.Status)
	}
}

func TestRespond_Degraded(t *testing.T) {
	e := policyEngine(config.StrategyDegraded)
	e.store.Insert(newActiveSession("s1"))

	resp := e.respond("s1", []Threat{{Type: KindNetwork}}, time.Now())
	if resp.Action != ActionDegrade {
		t.Errorf("action = %s, want %s", resp.Action, ActionDegrade)
	}
	if len(resp.Threats) != 0 {
		t.Error("degrade response must not carry threats")
	}
	s, _ := e.store.Get("s1")
	if s.Status != StatusActive {
		t.Errorf("degraded must not mutate session, status = %s", s.Status)
	}
}

func TestRespond_Warning(t *testing.T) {
	e := policyEngine(config.StrategyWarning)
	e.store.Insert(newActiveSession("s1"))

	threats := []Threat{{Type: KindAnomaly}}
	resp := e.respond("s1", threats, time.Now())
	if resp.Action != ActionWarning {
		t.Errorf("action = %s, want %s", resp.Action, ActionWarning)
	}
	if len(resp.Threats) != 1 {
		t.Errorf("warning response must carry threats, got %d", len(resp.Threats))
	}
	s, _ := e.store.Get("s1")
	if s.Status != StatusActive {
		t.Errorf("warning must not mutate session, status = %s", s.Status)
	}
}

func TestRespond_UnrecognizedStrategyFallsBackToTerminate(t *testing.T) {
	// Config validation rejects unknown strategies, but the dispatch
	// keeps immediate as the documented fallback.
	e := policyEngine("escalate")
	e.store.Insert(newActiveSession("s1"))

	resp := e.respond("s1", []Threat{{Type: KindVPN}}, time.Now())
	if resp.Action != ActionTerminate {
		t.Errorf("action = %s, want %s", resp.Action, ActionTerminate)
	}
	s, _ := e.store.Get("s1")
	if s.Status != StatusTerminated {
		t.Errorf("session status = %s, want terminated", s.Status)
	}
}
