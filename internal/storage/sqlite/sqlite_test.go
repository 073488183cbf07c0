package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateCircle generates ID and timestamp", func(t *testing.T) {
		circle := &models.Circle{Name: "Rent circle", TargetParticipantCount: 5, RoundNumber: 1}

		require.NoError(t, store.CreateCircle(ctx, circle))
		assert.NotEmpty(t, circle.ID)
		assert.NotZero(t, circle.CreatedAt)

		t.Logf("Created circle: ID=%s, Name=%s", circle.ID, circle.Name)
	})

	t.Run("GetCircle retrieves complete aggregate", func(t *testing.T) {
		original := &models.Circle{
			Name:                      "Holiday fund",
			TargetParticipantCount:    4,
			RoundNumber:               3,
			Pot:                       180,
			YieldPool:                 20,
			CurrentRecipientID:        "bob",
			PendingEmergencyApprovals: 1,
			Emergency:                 &models.EmergencyRequest{RequesterID: "alice", OpenedAt: 1700000000},
			Participants: []*models.Participant{
				{ID: "alice", JoinSeq: 1, Verified: true, Contribution: 90, YieldEarned: 10,
					HasApprovedEmergency: true, TotalDeposited: 100, TimesRecipient: 1},
				{ID: "bob", JoinSeq: 2, Verified: true, Contribution: 90, YieldEarned: 10, TotalDeposited: 100},
				{ID: "carol", JoinSeq: 3, Departed: true},
			},
		}
		require.NoError(t, store.CreateCircle(ctx, original))

		retrieved, err := store.GetCircle(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, original, retrieved)
	})

	t.Run("GetCircle returns ErrNotFound for nonexistent circle", func(t *testing.T) {
		_, err := store.GetCircle(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SaveCircle replaces state and clears emergency", func(t *testing.T) {
		circle := &models.Circle{
			Name:                      "Savings",
			TargetParticipantCount:    2,
			RoundNumber:               1,
			PendingEmergencyApprovals: 1,
			Emergency:                 &models.EmergencyRequest{RequesterID: "alice", OpenedAt: 1},
			Participants:              []*models.Participant{{ID: "alice", JoinSeq: 1, Verified: true}},
		}
		require.NoError(t, store.CreateCircle(ctx, circle))

		circle.Emergency = nil
		circle.PendingEmergencyApprovals = 0
		circle.Pot = 90
		circle.CurrentRecipientID = "alice"
		circle.Participants[0].Contribution = 90
		circle.Participants = append(circle.Participants, &models.Participant{ID: "bob", JoinSeq: 2})
		require.NoError(t, store.SaveCircle(ctx, circle, nil))

		retrieved, err := store.GetCircle(ctx, circle.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.Emergency)
		assert.Equal(t, int64(90), retrieved.Pot)
		assert.Equal(t, "alice", retrieved.CurrentRecipientID)
		require.Len(t, retrieved.Participants, 2)
		assert.Equal(t, int64(90), retrieved.Participants[0].Contribution)
		assert.Equal(t, "bob", retrieved.Participants[1].ID)
	})

	t.Run("SaveCircle for unknown circle fails", func(t *testing.T) {
		err := store.SaveCircle(ctx, &models.Circle{ID: "missing"}, nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListCircles returns every circle", func(t *testing.T) {
		circles, err := store.ListCircles(ctx)
		require.NoError(t, err)
		assert.Len(t, circles, 3)
	})
}

func TestEffects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	circle := &models.Circle{Name: "Rent circle", TargetParticipantCount: 3, RoundNumber: 1}
	require.NoError(t, store.CreateCircle(ctx, circle))

	effect := &models.Effect{
		CircleID:      circle.ID,
		ParticipantID: "alice",
		Kind:          models.EffectWithdraw,
		Direction:     models.DirectionPayout,
		Amount:        95,
		Fee:           5,
	}
	require.NoError(t, store.CreateEffect(ctx, effect))
	assert.NotEmpty(t, effect.ID)
	assert.Equal(t, models.EffectPending, effect.Status)

	t.Run("SaveCircle settles the effect atomically", func(t *testing.T) {
		effect.Status = models.EffectSettled
		effect.SettledAt = 1700000100
		require.NoError(t, store.SaveCircle(ctx, circle, effect))

		got, err := store.GetEffect(ctx, effect.ID)
		require.NoError(t, err)
		assert.Equal(t, effect, got)
	})

	t.Run("UpdateEffectStatus marks failures", func(t *testing.T) {
		failed := &models.Effect{
			CircleID:      circle.ID,
			ParticipantID: "bob",
			Kind:          models.EffectDeposit,
			Direction:     models.DirectionDeposit,
			Amount:        100,
		}
		require.NoError(t, store.CreateEffect(ctx, failed))
		require.NoError(t, store.UpdateEffectStatus(ctx, failed.ID, models.EffectFailed, 1700000200))

		got, err := store.GetEffect(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EffectFailed, got.Status)
	})

	t.Run("UpdateEffectStatus on unknown effect", func(t *testing.T) {
		err := store.UpdateEffectStatus(ctx, "missing", models.EffectFailed, 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListEffectsByCircle", func(t *testing.T) {
		effects, err := store.ListEffectsByCircle(ctx, circle.ID)
		require.NoError(t, err)
		require.Len(t, effects, 2)
		assert.Equal(t, "bob", effects[0].ParticipantID, "newest first")

		none, err := store.ListEffectsByCircle(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
