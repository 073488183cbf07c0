// Package settlement executes the transfers the circle ledger asks for.
//
// The engine journals each effect as pending, awaits Settle, and commits the
// ledger change only when Settle returns nil.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/yieldcircles/internal/models"
)

// Settler moves value for an effect. A nil error is the success
// acknowledgment; any error is a settlement failure. Timeouts are the
// settler's responsibility.
type Settler interface {
	Settle(ctx context.Context, effect models.Effect) error
}

// SettlerFunc adapts a function to the Settler interface.
type SettlerFunc func(ctx context.Context, effect models.Effect) error

// Settle calls f.
func (f SettlerFunc) Settle(ctx context.Context, effect models.Effect) error {
	return f(ctx, effect)
}

// Simulated acknowledges every effect after an optional delay without moving
// any value. It is meant for local development.
type Simulated struct {
	Delay time.Duration
}

// Settle waits for Delay (or ctx cancellation) and succeeds.
func (s Simulated) Settle(ctx context.Context, effect models.Effect) error {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	slog.Info("Simulated settlement",
		"effect_id", effect.ID,
		"circle_id", effect.CircleID,
		"participant_id", effect.ParticipantID,
		"kind", effect.Kind,
		"direction", effect.Direction,
		"amount", effect.Amount,
	)
	return nil
}
