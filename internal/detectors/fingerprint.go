package detectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
)

// fingerprintFields are the session info fields combined into the
// device fingerprint, in hash order.
var fingerprintFields = []string{"user_agent", "accept_language", "platform"}

// requiredComponents is how many fingerprint fields must be present for
// the fingerprint to validate at each sensitivity level.
func requiredComponents(sensitivity string) int {
	switch sensitivity {
	case config.SensitivityHigh:
		return len(fingerprintFields)
	case config.SensitivityLow:
		return 1
	default:
		return 2
	}
}

type fingerprintSession struct {
	hash        string
	components  []string
	required    int
	generatedAt time.Time
}

// FingerprintDetector derives a device fingerprint from the session info
// at initialization and validates it on every status check. It also
// provides the fingerprint data returned to the caller at session
// creation.
type FingerprintDetector struct {
	mu       sync.RWMutex
	sessions map[string]*fingerprintSession
}

func NewFingerprintDetector() *FingerprintDetector {
	return &FingerprintDetector{sessions: make(map[string]*fingerprintSession)}
}

func (d *FingerprintDetector) Kind() engine.Kind {
	return engine.KindFingerprint
}

// fingerprintHash combines the component values into a SHA-256 hex
// digest. Missing components contribute an empty segment so the digest
// stays stable for a given info shape.
func fingerprintHash(values []string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func (d *FingerprintDetector) Initialize(_ context.Context, sessionID string, info engine.SessionInfo, cfg *config.Config) error {
	values := make([]string, len(fingerprintFields))
	var present []string
	for i, field := range fingerprintFields {
		values[i] = stringField(info, field)
		if values[i] != "" {
			present = append(present, field)
		}
	}

	d.mu.Lock()
	d.sessions[sessionID] = &fingerprintSession{
		hash:        fingerprintHash(values),
		components:  present,
		required:    requiredComponents(cfg.SensitivityLevel),
		generatedAt: time.Now(),
	}
	d.mu.Unlock()
	return nil
}

func (d *FingerprintDetector) CheckStatus(ctx context.Context, sessionID string) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	d.mu.RLock()
	s, ok := d.sessions[sessionID]
	d.mu.RUnlock()
	if !ok {
		return engine.Result{}, errUnknownSession
	}

	res := &engine.FingerprintResult{Valid: len(s.components) >= s.required}
	if !res.Valid {
		res.Details = fmt.Sprintf("fingerprint has %d of %d required components",
			len(s.components), s.required)
	}

	return engine.Result{Kind: engine.KindFingerprint, Fingerprint: res}, nil
}

// FingerprintData exposes the derived fingerprint for the session
// creation response.
func (d *FingerprintDetector) FingerprintData(sessionID string) map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[sessionID]
	if !ok {
		return nil
	}
	return map[string]any{
		"hash":        s.hash,
		"components":  s.components,
		"generatedAt": s.generatedAt,
	}
}

func (d *FingerprintDetector) Cleanup(_ context.Context, sessionID string) error {
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()
	return nil
}
