package detectors

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
)

// scriptedAgents matches user agents of scripted clients that should
// never hold a protected viewing session.
var scriptedAgents = regexp.MustCompile(`(?i)\b(curl|wget|python-requests|go-http-client|httpclient|bot|scrapy)\b`)

// rapidChecksToFlag is how many back-to-back fast status checks mark the
// session suspicious.
const rapidChecksToFlag = 3

type networkSession struct {
	userAgent   string
	minInterval time.Duration
	lastCheck   time.Time
	rapidCount  int
}

// NetworkDetector watches session request behavior: scripted user
// agents and status checks arriving faster than a human player would
// issue them.
type NetworkDetector struct {
	mu       sync.Mutex
	sessions map[string]*networkSession
	now      func() time.Time
}

func NewNetworkDetector() *NetworkDetector {
	return &NetworkDetector{
		sessions: make(map[string]*networkSession),
		now:      time.Now,
	}
}

func (d *NetworkDetector) Kind() engine.Kind {
	return engine.KindNetwork
}

// checkInterval returns the minimum expected gap between status checks
// for the given sensitivity level.
func checkInterval(sensitivity string) time.Duration {
	switch sensitivity {
	case config.SensitivityHigh:
		return time.Second
	case config.SensitivityLow:
		return 50 * time.Millisecond
	default:
		return 250 * time.Millisecond
	}
}

func (d *NetworkDetector) Initialize(_ context.Context, sessionID string, info engine.SessionInfo, cfg *config.Config) error {
	d.mu.Lock()
	d.sessions[sessionID] = &networkSession{
		userAgent:   stringField(info, "user_agent"),
		minInterval: checkInterval(cfg.SensitivityLevel),
	}
	d.mu.Unlock()
	return nil
}

func (d *NetworkDetector) CheckStatus(ctx context.Context, sessionID string) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok {
		return engine.Result{}, errUnknownSession
	}

	now := d.now()
	if !s.lastCheck.IsZero() && now.Sub(s.lastCheck) < s.minInterval {
		s.rapidCount++
	} else {
		s.rapidCount = 0
	}
	s.lastCheck = now

	res := &engine.NetworkResult{}
	switch {
	case scriptedAgents.MatchString(s.userAgent):
		res.Suspicious = true
		res.Details = "scripted user agent"
	case s.rapidCount >= rapidChecksToFlag:
		res.Suspicious = true
		res.Details = "status checks arriving faster than playback interval"
	}

	return engine.Result{Kind: engine.KindNetwork, Network: res}, nil
}

func (d *NetworkDetector) Cleanup(_ context.Context, sessionID string) error {
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()
	return nil
}
