package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmynk/yieldcircles/internal/models"
)

// Webhook delivers effects to a custodial transfer service over HTTP.
// Any 2xx response acknowledges the transfer.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook settler posting to url. Requests time out
// after timeout.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	ID            string `json:"id"`
	CircleID      string `json:"circle_id"`
	ParticipantID string `json:"participant_id"`
	Kind          string `json:"kind"`
	Direction     string `json:"direction"`
	Amount        int64  `json:"amount"`
	Fee           int64  `json:"fee"`
}

// Settle posts the effect. The effect ID is sent as the Idempotency-Key so
// the receiver can deduplicate retries.
func (w *Webhook) Settle(ctx context.Context, effect models.Effect) error {
	body, err := json.Marshal(webhookPayload{
		ID:            effect.ID,
		CircleID:      effect.CircleID,
		ParticipantID: effect.ParticipantID,
		Kind:          string(effect.Kind),
		Direction:     string(effect.Direction),
		Amount:        effect.Amount,
		Fee:           effect.Fee,
	})
	if err != nil {
		return fmt.Errorf("failed to encode effect: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", effect.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("settlement webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("settlement webhook: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
