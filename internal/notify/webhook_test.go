package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vantara-media/bastion/internal/engine"
	"go.uber.org/zap"
)

func testNotification() engine.BreachNotification {
	return engine.BreachNotification{
		SessionID: "s1",
		Timestamp: time.Now(),
		Threats:   []engine.Threat{{Type: engine.KindVPN}},
		Action:    engine.ActionTerminate,
	}
}

func TestWebhook_DeliversPayload(t *testing.T) {
	var got engine.BreachNotification
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second, zap.NewNop())
	if err := wh.NotifyBreach(context.Background(), testNotification()); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}
	if got.SessionID != "s1" || got.Action != engine.ActionTerminate {
		t.Errorf("unexpected payload: %+v", got)
	}
	if len(got.Threats) != 1 || got.Threats[0].Type != engine.KindVPN {
		t.Errorf("unexpected threats: %+v", got.Threats)
	}
}

func TestWebhook_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second, zap.NewNop())
	if err := wh.NotifyBreach(context.Background(), testNotification()); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestWebhook_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second, zap.NewNop())
	for i := 0; i < 5; i++ {
		if err := wh.NotifyBreach(context.Background(), testNotification()); err == nil {
			t.Fatalf("attempt %d unexpectedly succeeded", i)
		}
	}

	// Breaker is open now: delivery is rejected without reaching the
	// endpoint.
	before := hits
	if err := wh.NotifyBreach(context.Background(), testNotification()); err == nil {
		t.Error("expected open-circuit error")
	}
	if hits != before {
		t.Errorf("open circuit still hit the endpoint (%d -> %d)", before, hits)
	}
}
