package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Notification types for maintenance window lifecycle events. External
// consumers dispatch on these, never on internal window status values.
const (
	NotifyWindowStarted   = "maintenance_window_started"
	NotifyWindowCompleted = "maintenance_window_completed"
	NotifyWindowFailed    = "maintenance_window_failed"
)

// WindowRef identifies the window an event is about.
type WindowRef struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	MaintenanceType string `json:"maintenance_type"`
}

// WindowEvent is the payload delivered when a maintenance window changes
// state.
type WindowEvent struct {
	NotificationType string    `json:"notification_type"`
	Window           WindowRef `json:"window"`
	JobID            string    `json:"job_id,omitempty"`
	ServerCount      int       `json:"server_count,omitempty"`
	Detail           string    `json:"detail,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Notifier delivers window lifecycle events. Delivery is best-effort; the
// scheduler never fails a window on a notification error.
type Notifier interface {
	Notify(ctx context.Context, event WindowEvent) error
}

// WebhookNotifier posts window events as JSON to a configured endpoint.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

// NewWebhookNotifier creates a notifier for the given endpoint.
func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Notify posts the event to the webhook endpoint.
func (n *WebhookNotifier) Notify(ctx context.Context, event WindowEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"window_id": event.Window.ID,
		"type":      event.NotificationType,
	}).Debug("Delivered window notification")
	return nil
}

// NoopNotifier discards all events. Used when notifications are disabled.
type NoopNotifier struct{}

// Notify discards the event.
func (NoopNotifier) Notify(ctx context.Context, event WindowEvent) error {
	return nil
}
