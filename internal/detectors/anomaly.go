package detectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
)

type anomalyLimits struct {
	maxPlaybackRate float64
	maxConcurrent   float64
	minBufferHealth float64
}

func limitsFor(sensitivity string) anomalyLimits {
	switch sensitivity {
	case config.SensitivityHigh:
		return anomalyLimits{maxPlaybackRate: 1.5, maxConcurrent: 2, minBufferHealth: 20}
	case config.SensitivityLow:
		return anomalyLimits{maxPlaybackRate: 4.0, maxConcurrent: 8, minBufferHealth: 0}
	default:
		return anomalyLimits{maxPlaybackRate: 2.0, maxConcurrent: 4, minBufferHealth: 5}
	}
}

type anomalySession struct {
	info   engine.SessionInfo
	limits anomalyLimits
}

// AnomalyDetector inspects playback telemetry carried in the session
// info for values no legitimate player produces.
type AnomalyDetector struct {
	mu       sync.RWMutex
	sessions map[string]*anomalySession
}

func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{sessions: make(map[string]*anomalySession)}
}

func (d *AnomalyDetector) Kind() engine.Kind {
	return engine.KindAnomaly
}

func (d *AnomalyDetector) Initialize(_ context.Context, sessionID string, info engine.SessionInfo, cfg *config.Config) error {
	d.mu.Lock()
	d.sessions[sessionID] = &anomalySession{
		info:   info,
		limits: limitsFor(cfg.SensitivityLevel),
	}
	d.mu.Unlock()
	return nil
}

func (d *AnomalyDetector) CheckStatus(ctx context.Context, sessionID string) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	d.mu.RLock()
	s, ok := d.sessions[sessionID]
	d.mu.RUnlock()
	if !ok {
		return engine.Result{}, errUnknownSession
	}

	var anomalies []engine.Anomaly

	if rate, ok := floatField(s.info, "playback_rate"); ok && rate > s.limits.maxPlaybackRate {
		anomalies = append(anomalies, engine.Anomaly{
			Type:        "playback_rate",
			Description: fmt.Sprintf("playback rate %.2f exceeds limit %.2f", rate, s.limits.maxPlaybackRate),
			Severity:    "high",
		})
	}
	if n, ok := floatField(s.info, "concurrent_streams"); ok && n > s.limits.maxConcurrent {
		anomalies = append(anomalies, engine.Anomaly{
			Type:        "concurrent_streams",
			Description: fmt.Sprintf("%.0f concurrent streams exceeds limit %.0f", n, s.limits.maxConcurrent),
			Severity:    "high",
		})
	}
	if h, ok := floatField(s.info, "buffer_health"); ok && h < s.limits.minBufferHealth {
		anomalies = append(anomalies, engine.Anomaly{
			Type:        "buffer_health",
			Description: fmt.Sprintf("buffer health %.0f below threshold %.0f", h, s.limits.minBufferHealth),
			Severity:    "medium",
		})
	}
	if f, ok := floatField(s.info, "failed_license_checks"); ok && f > 0 {
		anomalies = append(anomalies, engine.Anomaly{
			Type:        "license",
			Description: fmt.Sprintf("%.0f failed license checks", f),
			Severity:    "high",
		})
	}

	return engine.Result{
		Kind:    engine.KindAnomaly,
		Anomaly: &engine.AnomalyResult{Anomalies: anomalies},
	}, nil
}

func (d *AnomalyDetector) Cleanup(_ context.Context, sessionID string) error {
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()
	return nil
}
