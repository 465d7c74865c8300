// Package detectors contains the reference detector capabilities wired
// into the engine: VPN/datacenter exit detection, network behavior
// analysis, playback anomaly detection and device fingerprinting. Each
// keeps its own per-session bookkeeping keyed by session id and never
// touches the engine's session records.
package detectors

import (
	"errors"

	"github.com/vantara-media/bastion/internal/engine"
)

// errUnknownSession propagates as a detector failure and aborts the
// enclosing status check.
var errUnknownSession = errors.New("unknown session")

func stringField(info engine.SessionInfo, key string) string {
	if info == nil {
		return ""
	}
	if v, ok := info[key].(string); ok {
		return v
	}
	return ""
}

// floatField reads a numeric field. JSON-decoded numbers arrive as
// float64; ints are accepted for callers constructing info in code.
func floatField(info engine.SessionInfo, key string) (float64, bool) {
	if info == nil {
		return 0, false
	}
	switch v := info[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func headerField(info engine.SessionInfo, key string) map[string]any {
	if info == nil {
		return nil
	}
	if v, ok := info[key].(map[string]any); ok {
		return v
	}
	return nil
}
