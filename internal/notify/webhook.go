// Package notify delivers breach notifications to an external
// webhook-style sink. Delivery is awaited by the caller for ordering but
// is best-effort: failures are reported, never retried here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vantara-media/bastion/internal/engine"
	"go.uber.org/zap"
)

// Webhook posts breach notifications as JSON to a configured endpoint.
// A circuit breaker keeps a dead endpoint from stalling every breach
// response for the full HTTP timeout.
type Webhook struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[struct{}]
	logger   *zap.Logger
}

// NewWebhook creates a notifier for the given endpoint.
func NewWebhook(endpoint string, timeout time.Duration, logger *zap.Logger) *Webhook {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "breach-webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("notification circuit state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Webhook{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		cb:       cb,
		logger:   logger,
	}
}

// NotifyBreach delivers the notification payload. Implements
// engine.Notifier.
func (w *Webhook) NotifyBreach(ctx context.Context, n engine.BreachNotification) error {
	_, err := w.cb.Execute(func() (struct{}, error) {
		return struct{}{}, w.post(ctx, n)
	})
	return err
}

func (w *Webhook) post(ctx context.Context, n engine.BreachNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: deliver: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
