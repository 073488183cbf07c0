package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/internal/storage"
)

// CreateEffect persists a new effect to the database.
func (s *SQLiteStore) CreateEffect(ctx context.Context, effect *models.Effect) error {
	// Generate ID if not set
	if effect.ID == "" {
		effect.ID = uuid.New().String()
	}
	if effect.CreatedAt == 0 {
		effect.CreatedAt = time.Now().Unix()
	}
	if effect.Status == "" {
		effect.Status = models.EffectPending
	}

	var settledAt any
	if effect.SettledAt != 0 {
		settledAt = effect.SettledAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO effects (id, circle_id, participant_id, kind, direction, amount, fee, status, created_at, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		effect.ID, effect.CircleID, effect.ParticipantID, string(effect.Kind), string(effect.Direction),
		effect.Amount, effect.Fee, string(effect.Status), effect.CreatedAt, settledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert effect: %w", err)
	}

	return nil
}

// GetEffect retrieves an effect by ID.
func (s *SQLiteStore) GetEffect(ctx context.Context, effectID string) (*models.Effect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, circle_id, participant_id, kind, direction, amount, fee, status, created_at, settled_at
		 FROM effects WHERE id = ?`,
		effectID,
	)
	effect, err := scanEffect(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("effect %s: %w", effectID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get effect: %w", err)
	}
	return effect, nil
}

// UpdateEffectStatus records the settlement outcome of an effect.
func (s *SQLiteStore) UpdateEffectStatus(ctx context.Context, effectID string, status models.EffectStatus, settledAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateEffectStatus(ctx, tx, effectID, status, settledAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListEffectsByCircle retrieves all effects for a circle.
func (s *SQLiteStore) ListEffectsByCircle(ctx context.Context, circleID string) ([]*models.Effect, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, circle_id, participant_id, kind, direction, amount, fee, status, created_at, settled_at
		 FROM effects WHERE circle_id = ? ORDER BY created_at DESC, rowid DESC`,
		circleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list effects by circle: %w", err)
	}
	defer rows.Close()

	var effects []*models.Effect
	for rows.Next() {
		effect, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		effects = append(effects, effect)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate effects: %w", err)
	}

	return effects, nil
}

func updateEffectStatus(ctx context.Context, tx *sql.Tx, effectID string, status models.EffectStatus, settledAt int64) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE effects SET status = ?, settled_at = ? WHERE id = ?",
		string(status), settledAt, effectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update effect: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("effect %s: %w", effectID, storage.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEffect(row scanner) (*models.Effect, error) {
	effect := &models.Effect{}
	var kind, direction, status string
	var settledAt sql.NullInt64

	if err := row.Scan(&effect.ID, &effect.CircleID, &effect.ParticipantID, &kind, &direction,
		&effect.Amount, &effect.Fee, &status, &effect.CreatedAt, &settledAt); err != nil {
		return nil, err
	}

	effect.Kind = models.EffectKind(kind)
	effect.Direction = models.Direction(direction)
	effect.Status = models.EffectStatus(status)
	effect.SettledAt = settledAt.Int64
	return effect, nil
}
