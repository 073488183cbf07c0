package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/yieldcircles/internal/identity"
	"github.com/mmynk/yieldcircles/internal/ledger"
	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/internal/settlement"
	"github.com/mmynk/yieldcircles/internal/storage/sqlite"
)

// testSettler records every effect it sees and fails while failing is set.
type testSettler struct {
	mu      sync.Mutex
	failing atomic.Bool
	seen    []models.Effect
}

func (s *testSettler) Settle(ctx context.Context, effect models.Effect) error {
	s.mu.Lock()
	s.seen = append(s.seen, effect)
	s.mu.Unlock()
	if s.failing.Load() {
		return errors.New("custody unavailable")
	}
	return nil
}

func (s *testSettler) effects() []models.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Effect(nil), s.seen...)
}

func newTestEngine(t *testing.T, verifier identity.Verifier, settler settlement.Settler) *Engine {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })

	e, err := New(store, verifier, settler, Config{Ledger: ledger.DefaultConfig()})
	require.NoError(t, err)
	return e
}

// newVerifiedCircle creates a circle and verifies the given participants in order.
func newVerifiedCircle(t *testing.T, e *Engine, target int, participants ...string) string {
	t.Helper()
	ctx := context.Background()
	circle, err := e.CreateCircle(ctx, "Rent circle", target)
	require.NoError(t, err)
	for _, id := range participants {
		res, err := e.Verify(ctx, circle.ID, id, identity.Proof{})
		require.NoError(t, err)
		require.True(t, res.Verified)
	}
	return circle.ID
}

func requireConservation(t *testing.T, c *models.Circle) {
	t.Helper()
	var contributions, yields int64
	for _, p := range c.Participants {
		contributions += p.Contribution
		yields += p.YieldEarned
	}
	require.Equal(t, contributions, c.Pot, "pot must equal sum of contributions")
	require.Equal(t, yields, c.YieldPool, "yield pool must equal sum of yield earned")
}

func TestEndToEnd(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 3, "alice", "bob")

	r, err := e.Deposit(ctx, circleID, "alice", 100)
	require.NoError(t, err)
	require.NotNil(t, r.Effect)
	assert.Equal(t, models.EffectSettled, r.Effect.Status)
	assert.Equal(t, "alice", r.Circle.CurrentRecipientID)
	assert.Equal(t, models.CircleActive, r.Circle.State())

	_, err = e.Deposit(ctx, circleID, "bob", 100)
	require.NoError(t, err)

	circle, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	assert.Equal(t, int64(180), circle.Pot)
	assert.Equal(t, int64(20), circle.YieldPool)
	requireConservation(t, circle)

	r, err = e.ClaimPot(ctx, circleID, "alice")
	require.NoError(t, err)
	require.NotNil(t, r.Effect)
	assert.Equal(t, int64(90), r.Effect.Amount)
	assert.Equal(t, models.DirectionPayout, r.Effect.Direction)
	assert.Equal(t, 2, r.Circle.RoundNumber)
	assert.Equal(t, "bob", r.Circle.CurrentRecipientID)
	assert.Equal(t, int64(90), r.Circle.Pot)
	requireConservation(t, r.Circle)

	r, err = e.ClaimYield(ctx, circleID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Effect.Amount)

	effects, err := e.ListEffects(ctx, circleID)
	require.NoError(t, err)
	require.Len(t, effects, 4)
	for _, eff := range effects {
		assert.Equal(t, models.EffectSettled, eff.Status)
		assert.NotZero(t, eff.SettledAt)
	}
	assert.Len(t, settler.effects(), 4)
}

func TestSettlementFailureLeavesCircleUnchanged(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 3, "alice", "bob")

	_, err := e.Deposit(ctx, circleID, "alice", 100)
	require.NoError(t, err)
	before, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)

	settler.failing.Store(true)
	_, err = e.Deposit(ctx, circleID, "bob", 100)
	require.ErrorIs(t, err, ledger.ErrSettlementFailed)
	assert.Equal(t, ledger.ClassExternal, ledger.ClassOf(err))

	after, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed settlement must not change the circle")

	effects, err := e.ListEffects(ctx, circleID)
	require.NoError(t, err)
	require.Len(t, effects, 2)
	assert.Equal(t, models.EffectFailed, effects[0].Status)
	assert.Equal(t, "bob", effects[0].ParticipantID)
	assert.Equal(t, models.EffectSettled, effects[1].Status)

	settler.failing.Store(false)
	_, err = e.Deposit(ctx, circleID, "bob", 100)
	require.NoError(t, err, "retry after recovery")
}

func TestRejectedOperationMovesNoValue(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 3, "alice")

	_, err := e.Deposit(ctx, circleID, "mallory", 100)
	assert.ErrorIs(t, err, ledger.ErrNotVerified)

	_, err = e.Withdraw(ctx, circleID, "alice", 10)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	_, err = e.Deposit(ctx, circleID, "", 100)
	assert.ErrorIs(t, err, ledger.ErrInvalidParticipant)

	_, err = e.Deposit(ctx, "missing", "alice", 100)
	assert.ErrorIs(t, err, ledger.ErrCircleNotFound)
	assert.Equal(t, ledger.ClassNotFound, ledger.ClassOf(err))

	assert.Empty(t, settler.effects())
	effects, err := e.ListEffects(ctx, circleID)
	require.NoError(t, err)
	assert.Empty(t, effects)
}

func TestZeroClaimAdvancesRoundWithoutSettlement(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 2, "alice")

	_, err := e.Deposit(ctx, circleID, "alice", 100)
	require.NoError(t, err)

	r, err := e.ClaimPot(ctx, circleID, "alice")
	require.NoError(t, err)
	assert.Nil(t, r.Effect)
	assert.Equal(t, 2, r.Circle.RoundNumber)
	assert.Len(t, settler.effects(), 1, "only the deposit is settled")
}

func TestVerifyFailureRevokesVerification(t *testing.T) {
	var accept atomic.Bool
	accept.Store(true)
	var gotAction, gotSignal atomic.Value
	verifier := identity.VerifierFunc(func(ctx context.Context, participantID, action, signal string, proof identity.Proof) (identity.Result, error) {
		gotAction.Store(action)
		gotSignal.Store(signal)
		if !accept.Load() {
			return identity.Result{}, errors.New("oracle unreachable")
		}
		return identity.Result{Success: true}, nil
	})
	e := newTestEngine(t, verifier, &testSettler{})
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 3, "alice")

	assert.Equal(t, identity.DefaultAction, gotAction.Load())
	assert.Equal(t, circleID, gotSignal.Load())

	accept.Store(false)
	res, err := e.Verify(ctx, circleID, "alice", identity.Proof{})
	require.NoError(t, err, "an unreachable oracle is a failed verification, not an error")
	assert.False(t, res.Verified)
	assert.Contains(t, res.Detail, "oracle unreachable")

	circle, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	require.Len(t, circle.Participants, 1)
	assert.False(t, circle.Participants[0].Verified)

	_, err = e.Deposit(ctx, circleID, "alice", 100)
	assert.ErrorIs(t, err, ledger.ErrNotVerified)
}

func TestCancelledVerificationRevokesVerification(t *testing.T) {
	e := newTestEngine(t, identity.StaticVerifier{}, &testSettler{})
	circleID := newVerifiedCircle(t, e, 3, "alice")

	// The caller gives up while the oracle is being consulted.
	ctx, cancel := context.WithCancel(context.Background())
	e.verifier = identity.VerifierFunc(func(ctx context.Context, participantID, action, signal string, proof identity.Proof) (identity.Result, error) {
		cancel()
		return identity.Result{}, ctx.Err()
	})

	res, err := e.Verify(ctx, circleID, "alice", identity.Proof{})
	require.NoError(t, err)
	assert.False(t, res.Verified)

	circle, err := e.GetCircle(context.Background(), circleID)
	require.NoError(t, err)
	assert.False(t, circle.Participant("alice").Verified, "earlier success must be revoked")

	_, err = e.Deposit(context.Background(), circleID, "alice", 100)
	assert.ErrorIs(t, err, ledger.ErrNotVerified)
}

func TestRejectedVerificationRegistersParticipant(t *testing.T) {
	verifier := identity.VerifierFunc(func(ctx context.Context, participantID, action, signal string, proof identity.Proof) (identity.Result, error) {
		return identity.Result{Success: false, Detail: "invalid_proof"}, nil
	})
	e := newTestEngine(t, verifier, &testSettler{})
	ctx := context.Background()
	circle, err := e.CreateCircle(ctx, "Rent circle", 3)
	require.NoError(t, err)

	res, err := e.Verify(ctx, circle.ID, "alice", identity.Proof{})
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "invalid_proof", res.Detail)

	got, err := e.GetCircle(ctx, circle.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "alice", got.Participants[0].ID)
	assert.False(t, got.Participants[0].Verified)
}

func TestEmergencyWithdrawFlow(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 3, "alice", "bob", "carol")
	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := e.Deposit(ctx, circleID, id, 100)
		require.NoError(t, err)
	}

	// Quorum for a target of 3 at 80% is 3 approvals.
	r, err := e.RequestEmergencyWithdraw(ctx, circleID, "bob")
	require.NoError(t, err)
	assert.False(t, r.Executed)
	assert.Equal(t, 1, r.Approvals)
	assert.Equal(t, 3, r.Required)
	assert.Nil(t, r.Effect)

	_, err = e.RequestEmergencyWithdraw(ctx, circleID, "carol")
	assert.ErrorIs(t, err, ledger.ErrEmergencyRequestPending)

	r, err = e.ApproveEmergencyWithdraw(ctx, circleID, "alice")
	require.NoError(t, err)
	assert.False(t, r.Executed)
	assert.Equal(t, 2, r.Approvals)

	_, err = e.ApproveEmergencyWithdraw(ctx, circleID, "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyApproved)

	r, err = e.ApproveEmergencyWithdraw(ctx, circleID, "carol")
	require.NoError(t, err)
	assert.True(t, r.Executed)
	assert.Equal(t, "bob", r.RequesterID)
	require.NotNil(t, r.Effect)
	assert.Equal(t, int64(90), r.Effect.Amount)
	assert.Zero(t, r.Effect.Fee)
	assert.Equal(t, models.EffectEmergencyWithdraw, r.Effect.Kind)
	assert.Equal(t, "bob", r.Effect.ParticipantID)

	circle, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	assert.Nil(t, circle.Emergency)
	assert.Zero(t, circle.PendingEmergencyApprovals)
	assert.Zero(t, circle.Participant("bob").Contribution)
	for _, p := range circle.Participants {
		assert.False(t, p.HasApprovedEmergency)
	}
	requireConservation(t, circle)
}

func TestEmergencyExecutionFailureKeepsApprovals(t *testing.T) {
	settler := &testSettler{}
	e := newTestEngine(t, identity.StaticVerifier{}, settler)
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 2, "alice", "bob")
	for _, id := range []string{"alice", "bob"} {
		_, err := e.Deposit(ctx, circleID, id, 100)
		require.NoError(t, err)
	}

	_, err := e.RequestEmergencyWithdraw(ctx, circleID, "bob")
	require.NoError(t, err)

	settler.failing.Store(true)
	_, err = e.ApproveEmergencyWithdraw(ctx, circleID, "alice")
	require.ErrorIs(t, err, ledger.ErrSettlementFailed)

	circle, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	require.NotNil(t, circle.Emergency)
	assert.Equal(t, 1, circle.PendingEmergencyApprovals)
	assert.False(t, circle.Participant("alice").HasApprovedEmergency)

	settler.failing.Store(false)
	r, err := e.ApproveEmergencyWithdraw(ctx, circleID, "alice")
	require.NoError(t, err)
	assert.True(t, r.Executed)
}

func TestCancelEmergencyWithdraw(t *testing.T) {
	e := newTestEngine(t, identity.StaticVerifier{}, &testSettler{})
	ctx := context.Background()
	circleID := newVerifiedCircle(t, e, 5, "alice", "bob")
	for _, id := range []string{"alice", "bob"} {
		_, err := e.Deposit(ctx, circleID, id, 100)
		require.NoError(t, err)
	}
	_, err := e.RequestEmergencyWithdraw(ctx, circleID, "bob")
	require.NoError(t, err)

	_, err = e.CancelEmergencyWithdraw(ctx, circleID, "alice")
	assert.ErrorIs(t, err, ledger.ErrNotRequester)

	circle, err := e.CancelEmergencyWithdraw(ctx, circleID, "bob")
	require.NoError(t, err)
	assert.Nil(t, circle.Emergency)
	assert.Zero(t, circle.PendingEmergencyApprovals)

	_, err = e.ApproveEmergencyWithdraw(ctx, circleID, "alice")
	assert.ErrorIs(t, err, ledger.ErrNoOpenRequest)
}

func TestConcurrentDepositsPreserveConservation(t *testing.T) {
	e := newTestEngine(t, identity.StaticVerifier{}, settlement.Simulated{})
	ctx := context.Background()
	participants := []string{"alice", "bob", "carol", "dave"}
	circleID := newVerifiedCircle(t, e, len(participants), participants...)

	const perParticipant = 10
	var wg sync.WaitGroup
	errs := make(chan error, len(participants)*perParticipant)
	for _, id := range participants {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perParticipant; i++ {
				if _, err := e.Deposit(ctx, circleID, id, 77); err != nil {
					errs <- err
				}
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	circle, err := e.GetCircle(ctx, circleID)
	require.NoError(t, err)
	requireConservation(t, circle)
	for _, p := range circle.Participants {
		assert.Equal(t, int64(77*perParticipant), p.TotalDeposited, "total deposited by %s", p.ID)
	}

	effects, err := e.ListEffects(ctx, circleID)
	require.NoError(t, err)
	assert.Len(t, effects, len(participants)*perParticipant)
}

func TestCircleLocksSerializePerCircle(t *testing.T) {
	locks := newCircleLocks()
	ctx := context.Background()

	release, err := locks.acquire(ctx, "circle-1")
	require.NoError(t, err)

	// A different circle is not blocked.
	other, err := locks.acquire(ctx, "circle-2")
	require.NoError(t, err)
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(waitCtx, "circle-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release, err = locks.acquire(ctx, "circle-1")
	require.NoError(t, err)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "idle locks are dropped")
}
