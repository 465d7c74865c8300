package detectors

import (
	"context"
	"net/netip"
	"strings"
	"sync"

	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/engine"
)

// datacenterRanges lists address space of well-known hosting and VPN
// exit providers. Representative, not exhaustive.
var datacenterRanges = func() []netip.Prefix {
	cidrs := []string{
		"104.16.0.0/13",  // Cloudflare
		"162.158.0.0/15", // Cloudflare
		"34.64.0.0/10",   // Google Cloud
		"35.184.0.0/13",  // Google Cloud
		"3.0.0.0/9",      // AWS
		"52.0.0.0/10",    // AWS
		"13.64.0.0/11",   // Azure
		"20.33.0.0/16",   // Azure
		"138.197.0.0/16", // DigitalOcean
		"159.65.0.0/16",  // DigitalOcean
		"45.76.0.0/15",   // Vultr
		"95.216.0.0/15",  // Hetzner
	}
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		prefixes = append(prefixes, netip.MustParsePrefix(c))
	}
	return prefixes
}()

// proxyHeaders are request headers that indicate a forwarding proxy or
// VPN client in front of the viewer.
var proxyHeaders = []string{"via", "x-proxy-id", "x-vpn", "forwarded"}

type vpnSession struct {
	addr        netip.Addr
	hasAddr     bool
	headers     map[string]any
	sensitivity string
}

// VPNDetector flags sessions whose client address belongs to a known
// datacenter or VPN provider, or that carry proxy-marker headers.
type VPNDetector struct {
	mu       sync.RWMutex
	sessions map[string]*vpnSession
}

func NewVPNDetector() *VPNDetector {
	return &VPNDetector{sessions: make(map[string]*vpnSession)}
}

func (d *VPNDetector) Kind() engine.Kind {
	return engine.KindVPN
}

func (d *VPNDetector) Initialize(_ context.Context, sessionID string, info engine.SessionInfo, cfg *config.Config) error {
	s := &vpnSession{
		headers:     headerField(info, "headers"),
		sensitivity: cfg.SensitivityLevel,
	}
	if ip := stringField(info, "ip"); ip != "" {
		addr, err := netip.ParseAddr(ip)
		if err == nil {
			s.addr = addr
			s.hasAddr = true
		}
	}
	d.mu.Lock()
	d.sessions[sessionID] = s
	d.mu.Unlock()
	return nil
}

func (d *VPNDetector) CheckStatus(ctx context.Context, sessionID string) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	d.mu.RLock()
	s, ok := d.sessions[sessionID]
	d.mu.RUnlock()
	if !ok {
		return engine.Result{}, errUnknownSession
	}

	res := &engine.VPNResult{}
	if s.hasAddr {
		for _, p := range datacenterRanges {
			if p.Contains(s.addr) {
				res.Detected = true
				res.Details = "client address in datacenter range " + p.String()
				break
			}
		}
	}

	// Proxy-marker headers count only above low sensitivity.
	if !res.Detected && s.sensitivity != config.SensitivityLow {
		for name := range s.headers {
			for _, marker := range proxyHeaders {
				if strings.EqualFold(name, marker) {
					res.Detected = true
					res.Details = "proxy header present: " + strings.ToLower(name)
					break
				}
			}
			if res.Detected {
				break
			}
		}
	}

	return engine.Result{Kind: engine.KindVPN, VPN: res}, nil
}
