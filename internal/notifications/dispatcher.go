package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Dispatcher forwards notifications to a webhook, e.g. an SMS gateway.
type Dispatcher struct {
	url    string
	client *http.Client
}

// NewDispatcher creates a Dispatcher posting to url. It returns nil when url
// is empty.
func NewDispatcher(url string) *Dispatcher {
	if url == "" {
		return nil
	}
	return &Dispatcher{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers n, logging failures. Delivery never blocks storing.
func (d *Dispatcher) Send(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("notifications: encoding webhook payload: %v", err)
		return
	}
	if err := d.SendWebhook(context.WithoutCancel(ctx), payload); err != nil {
		log.Printf("notifications: %v", err)
	}
}

// SendWebhook POSTs payload to the configured URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
