package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vantara-media/bastion/internal/audit"
	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned by operations that require an existing
// session record.
var ErrSessionNotFound = errors.New("session not found")

// Engine is the orchestration core. It owns the session store, fans
// security checks out to the detector capabilities, aggregates their
// results into a verdict and applies the configured breach-response
// strategy.
type Engine struct {
	cfg       *config.Config
	detectors []Detector
	store     *SessionStore
	events    *audit.Logger
	notifier  Notifier // nil when no notification endpoint is configured
	logger    *zap.Logger
	timeout   time.Duration
}

// New creates an engine with the given detector set. cfg must have been
// validated. notifier may be nil.
func New(cfg *config.Config, detectors []Detector, events *audit.Logger, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		detectors: detectors,
		store:     NewSessionStore(),
		events:    events,
		notifier:  notifier,
		logger:    logger,
		timeout:   cfg.Detectors.Timeout,
	}
}

// Session returns a snapshot of a stored session.
func (e *Engine) Session(id string) (Session, bool) {
	return e.store.Get(id)
}

// Initialize opens a protected session: it generates a fresh session id,
// initializes every detector concurrently and commits the session record
// only after all of them succeed. Any detector failure aborts the whole
// operation with no partial state.
func (e *Engine) Initialize(ctx context.Context, info SessionInfo) (*InitResult, error) {
	sessionID := NewSessionID()

	g, gctx := errgroup.WithContext(ctx)
	for _, det := range e.detectors {
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(gctx, e.timeout)
			defer cancel()
			if err := det.Initialize(ictx, sessionID, info, e.cfg); err != nil {
				return fmt.Errorf("detector %s: initialize: %w", det.Kind(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var fingerprint map[string]any
	for _, det := range e.detectors {
		if f, ok := det.(Fingerprinter); ok {
			fingerprint = f.FingerprintData(sessionID)
		}
	}

	now := time.Now()
	sess := &Session{
		ID:        sessionID,
		Info:      info,
		StartTime: now,
		Status:    StatusActive,
	}
	if !e.store.Insert(sess) {
		return nil, fmt.Errorf("session %s: id collision", sessionID)
	}

	metrics.SessionsCreated.Inc()
	e.events.Record(sessionID, audit.EventSessionCreated, map[string]any{
		"serviceName": e.cfg.ServiceName,
	})
	e.logger.Info("session initialized", zap.String("session_id", sessionID))

	return &InitResult{
		SessionID:       sessionID,
		SecurityToken:   NewSecurityToken(e.cfg.ServiceName, e.cfg.APIKey, sessionID, info, now),
		FingerprintData: fingerprint,
	}, nil
}

// checkOutput holds one detector's result in the status fan-out.
type checkOutput struct {
	kind   Kind
	result Result
	err    error
}

// CheckSecurityStatus runs every detector concurrently against the
// session and aggregates the results into a SecurityStatus. An unknown
// id yields the degenerate invalid-session status without touching the
// store. Any detector failure aborts the whole check: detectors are not
// individually fenced, a consistency tradeoff rather than a performance
// one. An unsafe verdict triggers the breach handler before returning;
// the returned status reflects detection, not the response.
func (e *Engine) CheckSecurityStatus(ctx context.Context, sessionID string) (*SecurityStatus, error) {
	start := time.Now()

	if _, ok := e.store.Get(sessionID); !ok {
		metrics.StatusChecks.WithLabelValues("invalid_session").Inc()
		return invalidSession(time.Now()), nil
	}

	results, err := e.fanOut(ctx, sessionID)
	if err != nil {
		metrics.StatusChecks.WithLabelValues("error").Inc()
		return nil, err
	}

	threats := make([]Threat, 0, len(KindOrder))
	for _, kind := range KindOrder {
		res, ok := results[kind]
		if !ok {
			continue
		}
		if res.Threatens() {
			metrics.ThreatsDetected.WithLabelValues(string(kind)).Inc()
			threats = append(threats, Threat{Type: kind, Details: res})
		}
	}

	status := &SecurityStatus{
		Secure:    len(threats) == 0,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Threats:   threats,
	}
	metrics.CheckDuration.Observe(time.Since(start).Seconds())

	if status.Secure {
		metrics.StatusChecks.WithLabelValues("secure").Inc()
		e.events.Record(sessionID, audit.EventRoutine, map[string]any{"secure": true})
		return status, nil
	}

	metrics.StatusChecks.WithLabelValues("breach").Inc()
	resp := e.handleBreach(ctx, sessionID, threats, status.Timestamp)
	e.logger.Info("breach response applied",
		zap.String("session_id", sessionID),
		zap.String("action", resp.Action),
	)
	return status, nil
}

// fanOut issues CheckStatus to all detectors in parallel and waits for
// all of them. Each goroutine sends into a buffered channel sized for
// the full detector set, so an early error return never blocks a
// late-finishing goroutine; the channel is GC'd once all references are
// gone.
func (e *Engine) fanOut(ctx context.Context, sessionID string) (map[Kind]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ch := make(chan checkOutput, len(e.detectors))
	for _, det := range e.detectors {
		go func(d Detector) {
			res, err := d.CheckStatus(ctx, sessionID)
			ch <- checkOutput{kind: d.Kind(), result: res, err: err}
		}(det)
	}

	results := make(map[Kind]Result, len(e.detectors))
	for range e.detectors {
		select {
		case out := <-ch:
			if out.err != nil {
				return nil, fmt.Errorf("detector %s: check status: %w", out.kind, out.err)
			}
			results[out.kind] = out.result
		case <-ctx.Done():
			return nil, fmt.Errorf("detector fan-out: %w", ctx.Err())
		}
	}
	return results, nil
}

// handleBreach runs the breach-response steps in order: audit log,
// awaited notification, strategy dispatch. Notification failure is
// logged and counted but never suppresses the blocking action.
func (e *Engine) handleBreach(ctx context.Context, sessionID string, threats []Threat, now time.Time) *BreachResponse {
	e.events.Record(sessionID, audit.EventBreach, map[string]any{
		"threats":  threats,
		"strategy": e.cfg.BlockingStrategy,
	})
	e.logger.Warn("security breach detected",
		zap.String("session_id", sessionID),
		zap.Int("threat_count", len(threats)),
	)

	if e.notifier != nil {
		n := BreachNotification{
			SessionID: sessionID,
			Timestamp: now,
			Threats:   threats,
			Action:    e.cfg.BlockingStrategy,
		}
		if err := e.notifier.NotifyBreach(ctx, n); err != nil {
			metrics.NotificationFailures.Inc()
			e.logger.Warn("breach notification delivery failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	resp := e.respond(sessionID, threats, now)
	metrics.BreachActions.WithLabelValues(resp.Action).Inc()
	return resp
}

// TerminateStream terminates a session. Terminal sessions are absorbed:
// the stored terminal status is kept and only re-stamped.
func (e *Engine) TerminateStream(_ context.Context, sessionID, reason string) (*TerminationResult, error) {
	if reason == "" {
		reason = "Stream terminated"
	}
	now := time.Now()
	s, ok := e.terminate(sessionID, reason, now)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &TerminationResult{
		Action:    ActionTerminate,
		Reason:    reason,
		SessionID: sessionID,
		Status:    s.Status,
		Timestamp: now,
	}, nil
}

// terminate applies the store transition and records the audit event.
func (e *Engine) terminate(sessionID, reason string, now time.Time) (Session, bool) {
	s, ok := e.store.Terminate(sessionID, reason, now)
	if !ok {
		return s, false
	}
	e.events.Record(sessionID, audit.EventSessionTerminated, map[string]any{
		"reason": reason,
		"status": string(s.Status),
	})
	return s, true
}

// Cleanup closes a session and releases detector resources. Returns
// false for unknown ids. Calling it on an already-closed session still
// returns true and re-stamps the closure time.
func (e *Engine) Cleanup(ctx context.Context, sessionID string) bool {
	now := time.Now()
	s, ok := e.store.Close(sessionID, now)
	if !ok {
		return false
	}

	for _, det := range e.detectors {
		c, ok := det.(Cleaner)
		if !ok {
			continue // cleanup capability is optional
		}
		if err := c.Cleanup(ctx, sessionID); err != nil {
			e.logger.Warn("detector cleanup failed",
				zap.String("detector", string(det.Kind())),
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	e.events.Record(sessionID, audit.EventSessionClosed, map[string]any{
		"status": string(s.Status),
	})
	return true
}
