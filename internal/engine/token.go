package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh session identifier, unique for the
// process lifetime.
func NewSessionID() string {
	return uuid.New().String()
}

// NewSecurityToken derives an opaque security token for a session. It
// mixes the service identity, the caller-supplied session info and the
// session's id and creation time; callers must treat it as opaque and
// must not expect it to be reproducible across restarts.
func NewSecurityToken(serviceName, apiKey, sessionID string, info SessionInfo, startTime time.Time) string {
	h := sha256.New()
	h.Write([]byte(serviceName))
	h.Write([]byte(apiKey))
	h.Write([]byte(sessionID))
	if info != nil {
		// Marshal errors only occur for non-JSON-encodable values; the
		// token still covers the session identity in that case.
		if raw, err := json.Marshal(info); err == nil {
			h.Write(raw)
		}
	}
	fmt.Fprintf(h, "%d", startTime.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}
