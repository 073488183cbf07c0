package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/yieldcircles/internal/models"
)

var testEffect = models.Effect{
	ID:            "effect-1",
	CircleID:      "circle-1",
	ParticipantID: "alice",
	Kind:          models.EffectWithdraw,
	Direction:     models.DirectionPayout,
	Amount:        95,
	Fee:           5,
}

func TestWebhookDeliversEffect(t *testing.T) {
	type delivery struct {
		key     string
		payload webhookPayload
	}
	deliveries := make(chan delivery, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		deliveries <- delivery{key: r.Header.Get("Idempotency-Key"), payload: payload}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := NewWebhook(server.URL, time.Second).Settle(context.Background(), testEffect)
	require.NoError(t, err)

	got := <-deliveries
	assert.Equal(t, "effect-1", got.key)
	assert.Equal(t, "alice", got.payload.ParticipantID)
	assert.Equal(t, "payout", got.payload.Direction)
	assert.Equal(t, int64(95), got.payload.Amount)
	assert.Equal(t, int64(5), got.payload.Fee)
}

func TestWebhookReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient custody funds", http.StatusConflict)
	}))
	defer server.Close()

	err := NewWebhook(server.URL, time.Second).Settle(context.Background(), testEffect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "insufficient custody funds")
}

func TestSimulatedHonorsContext(t *testing.T) {
	require.NoError(t, Simulated{}.Settle(context.Background(), testEffect))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Simulated{Delay: time.Minute}.Settle(ctx, testEffect)
	assert.ErrorIs(t, err, context.Canceled)
}
