package engine

import (
	"context"

	"github.com/vantara-media/bastion/internal/config"
)

// Kind identifies one threat-detection capability.
type Kind string

const (
	KindVPN         Kind = "vpn"
	KindNetwork     Kind = "network"
	KindAnomaly     Kind = "anomaly"
	KindFingerprint Kind = "fingerprint"
)

// KindOrder is the fixed order in which detector results are evaluated
// and threats are reported.
var KindOrder = [...]Kind{KindVPN, KindNetwork, KindAnomaly, KindFingerprint}

// SessionInfo is caller-supplied session metadata. Opaque to the engine;
// detectors interpret the fields they care about.
type SessionInfo map[string]any

// Detector is the capability contract every detector must implement.
// Implementations must respect context deadlines and keep their own
// per-session bookkeeping; they never see the engine's session records.
type Detector interface {
	// Kind returns the threat category this detector covers.
	Kind() Kind

	// Initialize registers a new session with the detector. An error
	// aborts session creation.
	Initialize(ctx context.Context, sessionID string, info SessionInfo, cfg *config.Config) error

	// CheckStatus reports the detector's current result for the session.
	// An error aborts the enclosing security check.
	CheckStatus(ctx context.Context, sessionID string) (Result, error)
}

// Cleaner is an optional capability for detectors that hold per-session
// resources. Absence is not an error.
type Cleaner interface {
	Cleanup(ctx context.Context, sessionID string) error
}

// Fingerprinter is an optional capability exposing the fingerprint data
// returned to the caller at session creation.
type Fingerprinter interface {
	FingerprintData(sessionID string) map[string]any
}

// VPNResult is the VPN detector's result shape.
type VPNResult struct {
	Detected bool   `json:"detected"`
	Details  string `json:"details,omitempty"`
}

// NetworkResult is the network analysis detector's result shape.
type NetworkResult struct {
	Suspicious bool   `json:"suspicious"`
	Details    string `json:"details,omitempty"`
}

// Anomaly is a single anomalous observation.
type Anomaly struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// AnomalyResult is the anomaly detector's result shape.
type AnomalyResult struct {
	Anomalies []Anomaly `json:"anomalies"`
}

// FingerprintResult is the content fingerprinting detector's result shape.
type FingerprintResult struct {
	Valid   bool   `json:"valid"`
	Details string `json:"details,omitempty"`
}

// Result is a tagged variant: exactly the field matching Kind is set.
// Keeping the shapes distinct lets the threat rule table type-check per
// variant instead of digging through an open-ended blob.
type Result struct {
	Kind        Kind               `json:"kind"`
	VPN         *VPNResult         `json:"vpn,omitempty"`
	Network     *NetworkResult     `json:"network,omitempty"`
	Anomaly     *AnomalyResult     `json:"anomaly,omitempty"`
	Fingerprint *FingerprintResult `json:"fingerprint,omitempty"`
}

// Threatens applies the per-detector threat rule:
//
//	vpn         detected == true
//	network     suspicious == true
//	anomaly     anomalies non-empty
//	fingerprint valid == false
func (r Result) Threatens() bool {
	switch r.Kind {
	case KindVPN:
		return r.VPN != nil && r.VPN.Detected
	case KindNetwork:
		return r.Network != nil && r.Network.Suspicious
	case KindAnomaly:
		return r.Anomaly != nil && len(r.Anomaly.Anomalies) > 0
	case KindFingerprint:
		return r.Fingerprint != nil && !r.Fingerprint.Valid
	default:
		return false
	}
}

// Threat is a detector-reported condition indicating the session may be
// compromised. Details carries the originating result.
type Threat struct {
	Type    Kind   `json:"type"`
	Details Result `json:"details"`
}
