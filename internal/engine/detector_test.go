package engine

import "testing"

func TestResult_Threatens(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		want   bool
	}{
		{"vpn detected", Result{Kind: KindVPN, VPN: &VPNResult{Detected: true}}, true},
		{"vpn clean", Result{Kind: KindVPN, VPN: &VPNResult{}}, false},
		{"network suspicious", Result{Kind: KindNetwork, Network: &NetworkResult{Suspicious: true}}, true},
		{"network clean", Result{Kind: KindNetwork, Network: &NetworkResult{}}, false},
		{"anomalies present", Result{Kind: KindAnomaly, Anomaly: &AnomalyResult{Anomalies: []Anomaly{{Type: "x"}}}}, true},
		{"anomalies empty", Result{Kind: KindAnomaly, Anomaly: &AnomalyResult{}}, false},
		{"fingerprint invalid", Result{Kind: KindFingerprint, Fingerprint: &FingerprintResult{Valid: false}}, true},
		{"fingerprint valid", Result{Kind: KindFingerprint, Fingerprint: &FingerprintResult{Valid: true}}, false},
		{"missing payload", Result{Kind: KindVPN}, false},
		{"unknown kind", Result{Kind: Kind("bogus")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.result.Threatens(); got != tc.want {
				t.Errorf("Threatens() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKindOrder(t *testing.T) {
	want := [...]Kind{KindVPN, KindNetwork, KindAnomaly, KindFingerprint}
	if KindOrder != want {
		t.Errorf("KindOrder = %v, want %v", KindOrder, want)
	}
}
