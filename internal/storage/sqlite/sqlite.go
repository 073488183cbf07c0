// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY and
	// keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCircle persists a new circle to the database.
func (s *SQLiteStore) CreateCircle(ctx context.Context, circle *models.Circle) error {
	// Generate ID if not set
	if circle.ID == "" {
		circle.ID = uuid.New().String()
	}
	if circle.CreatedAt == 0 {
		circle.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO circles (id, name, target_participant_count, round_number, pot, yield_pool,
		 current_recipient_id, pending_emergency_approvals, emergency_requester_id, emergency_opened_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		circle.ID, circle.Name, circle.TargetParticipantCount, circle.RoundNumber, circle.Pot, circle.YieldPool,
		nullString(circle.CurrentRecipientID), circle.PendingEmergencyApprovals,
		emergencyRequester(circle), emergencyOpenedAt(circle), circle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert circle: %w", err)
	}

	if err := upsertParticipants(ctx, tx, circle); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCircle retrieves a circle by ID, including all participants.
func (s *SQLiteStore) GetCircle(ctx context.Context, circleID string) (*models.Circle, error) {
	circle := &models.Circle{}
	var recipient, requester sql.NullString
	var openedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_participant_count, round_number, pot, yield_pool, current_recipient_id,
		 pending_emergency_approvals, emergency_requester_id, emergency_opened_at, created_at
		 FROM circles WHERE id = ?`,
		circleID,
	).Scan(&circle.ID, &circle.Name, &circle.TargetParticipantCount, &circle.RoundNumber, &circle.Pot,
		&circle.YieldPool, &recipient, &circle.PendingEmergencyApprovals, &requester, &openedAt, &circle.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("circle %s: %w", circleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	circle.CurrentRecipientID = recipient.String
	if requester.Valid {
		circle.Emergency = &models.EmergencyRequest{
			RequesterID: requester.String,
			OpenedAt:    openedAt.Int64,
		}
	}

	// Get participants in join order
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, join_seq, verified, contribution, yield_earned, has_approved_emergency,
		 total_deposited, times_recipient, departed
		 FROM participants WHERE circle_id = ? ORDER BY join_seq`,
		circleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.JoinSeq, &p.Verified, &p.Contribution, &p.YieldEarned,
			&p.HasApprovedEmergency, &p.TotalDeposited, &p.TimesRecipient, &p.Departed); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		circle.Participants = append(circle.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return circle, nil
}

// ListCircles retrieves all circles without their participants.
func (s *SQLiteStore) ListCircles(ctx context.Context) ([]*models.Circle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_participant_count, round_number, pot, yield_pool, current_recipient_id,
		 pending_emergency_approvals, created_at
		 FROM circles ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	var circles []*models.Circle
	for rows.Next() {
		circle := &models.Circle{}
		var recipient sql.NullString
		if err := rows.Scan(&circle.ID, &circle.Name, &circle.TargetParticipantCount, &circle.RoundNumber,
			&circle.Pot, &circle.YieldPool, &recipient, &circle.PendingEmergencyApprovals, &circle.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan circle: %w", err)
		}
		circle.CurrentRecipientID = recipient.String
		circles = append(circles, circle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate circles: %w", err)
	}

	return circles, nil
}

// SaveCircle replaces the circle row and its participants, and records the
// effect's settlement outcome in the same transaction.
func (s *SQLiteStore) SaveCircle(ctx context.Context, circle *models.Circle, effect *models.Effect) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE circles SET round_number = ?, pot = ?, yield_pool = ?, current_recipient_id = ?,
		 pending_emergency_approvals = ?, emergency_requester_id = ?, emergency_opened_at = ?
		 WHERE id = ?`,
		circle.RoundNumber, circle.Pot, circle.YieldPool, nullString(circle.CurrentRecipientID),
		circle.PendingEmergencyApprovals, emergencyRequester(circle), emergencyOpenedAt(circle),
		circle.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update circle: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("circle %s: %w", circle.ID, storage.ErrNotFound)
	}

	if err := upsertParticipants(ctx, tx, circle); err != nil {
		return err
	}

	if effect != nil {
		if err := updateEffectStatus(ctx, tx, effect.ID, effect.Status, effect.SettledAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func upsertParticipants(ctx context.Context, tx *sql.Tx, circle *models.Circle) error {
	for _, p := range circle.Participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO participants (circle_id, id, join_seq, verified, contribution, yield_earned,
			 has_approved_emergency, total_deposited, times_recipient, departed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (circle_id, id) DO UPDATE SET
			 verified = excluded.verified,
			 contribution = excluded.contribution,
			 yield_earned = excluded.yield_earned,
			 has_approved_emergency = excluded.has_approved_emergency,
			 total_deposited = excluded.total_deposited,
			 times_recipient = excluded.times_recipient,
			 departed = excluded.departed`,
			circle.ID, p.ID, p.JoinSeq, p.Verified, p.Contribution, p.YieldEarned,
			p.HasApprovedEmergency, p.TotalDeposited, p.TimesRecipient, p.Departed,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert participant: %w", err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func emergencyRequester(circle *models.Circle) any {
	if circle.Emergency == nil {
		return nil
	}
	return circle.Emergency.RequesterID
}

func emergencyOpenedAt(circle *models.Circle) any {
	if circle.Emergency == nil {
		return nil
	}
	return circle.Emergency.OpenedAt
}
