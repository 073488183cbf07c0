// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/yieldcircles/internal/models"
)

// ErrNotFound is returned when a circle or effect does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for circle storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine.
type Store interface {
	// CreateCircle persists a new circle.
	// The circle.ID field will be populated by the store if empty.
	CreateCircle(ctx context.Context, circle *models.Circle) error

	// GetCircle retrieves a circle aggregate (participants and open
	// emergency request included) by its ID.
	// Returns an error wrapping ErrNotFound if the circle does not exist.
	GetCircle(ctx context.Context, circleID string) (*models.Circle, error)

	// ListCircles retrieves all circles, newest first, without participants.
	ListCircles(ctx context.Context) ([]*models.Circle, error)

	// SaveCircle atomically replaces the circle aggregate. If effect is not
	// nil its status and settlement time are updated in the same transaction.
	SaveCircle(ctx context.Context, circle *models.Circle, effect *models.Effect) error

	// CreateEffect journals a new effect. The effect.ID field will be
	// populated by the store if empty.
	CreateEffect(ctx context.Context, effect *models.Effect) error

	// UpdateEffectStatus records the settlement outcome of an effect.
	UpdateEffectStatus(ctx context.Context, effectID string, status models.EffectStatus, settledAt int64) error

	// ListEffectsByCircle retrieves all effects for a circle, newest first.
	ListEffectsByCircle(ctx context.Context, circleID string) ([]*models.Effect, error)

	// Close releases any resources held by the store.
	Close() error
}
