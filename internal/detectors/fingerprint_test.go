package detectors

import (
	"context"
	"testing"

	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
)

var fullFingerprint = engine.SessionInfo{
	"user_agent":      "Mozilla/5.0 (SmartTV)",
	"accept_language": "en-US",
	"platform":        "tizen",
}

func fingerprintCheck(t *testing.T, sensitivity string, info engine.SessionInfo) *engine.FingerprintResult {
	t.Helper()
	d := NewFingerprintDetector()
	if err := d.Initialize(context.Background(), "s1", info, testConfig(sensitivity)); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	res, err := d.CheckStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	return res.Fingerprint
}

func TestFingerprintDetector_ValidityBySensitivity(t *testing.T) {
	partial := engine.SessionInfo{"user_agent": "Mozilla/5.0 (SmartTV)"}

	if res := fingerprintCheck(t, config.SensitivityHigh, fullFingerprint); !res.Valid {
		t.Errorf("full fingerprint invalid at high sensitivity: %s", res.Details)
	}
	if res := fingerprintCheck(t, config.SensitivityHigh, partial); res.Valid {
		t.Error("one component should not validate at high sensitivity")
	}
	if res := fingerprintCheck(t, config.SensitivityLow, partial); !res.Valid {
		t.Errorf("one component should validate at low sensitivity: %s", res.Details)
	}
	if res := fingerprintCheck(t, config.SensitivityMedium, engine.SessionInfo{}); res.Valid {
		t.Error("empty fingerprint should never validate at medium sensitivity")
	}
}

func TestFingerprintDetector_Hash(t *testing.T) {
	a := fingerprintHash([]string{"ua", "en-US", "tizen"})
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != fingerprintHash([]string{"ua", "en-US", "tizen"}) {
		t.Error("hash not deterministic")
	}
	if a == fingerprintHash([]string{"ua", "en-GB", "tizen"}) {
		t.Error("expected different hash for different components")
	}
}

func TestFingerprintDetector_FingerprintData(t *testing.T) {
	d := NewFingerprintDetector()
	if err := d.Initialize(context.Background(), "s1", fullFingerprint, testConfig(config.SensitivityMedium)); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	data := d.FingerprintData("s1")
	if data == nil {
		t.Fatal("expected fingerprint data")
	}
	hash, _ := data["hash"].(string)
	if len(hash) != 64 {
		t.Errorf("hash = %q, want 64 hex chars", hash)
	}
	components, _ := data["components"].([]string)
	if len(components) != 3 {
		t.Errorf("components = %v, want all 3 fields", components)
	}

	if d.FingerprintData("unknown") != nil {
		t.Error("expected nil data for unknown session")
	}
}

func TestFingerprintDetector_CleanupForgetsSession(t *testing.T) {
	d := NewFingerprintDetector()
	if err := d.Initialize(context.Background(), "s1", fullFingerprint, testConfig(config.SensitivityMedium)); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := d.Cleanup(context.Background(), "s1"); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := d.CheckStatus(context.Background(), "s1"); err == nil {
		t.Error("expected error after cleanup")
	}
}
