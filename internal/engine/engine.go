// Package engine is the Circle Engine: the facade that sequences identity
// verification, ledger mutations and settlement for every circle operation.
//
// Operations on the same circle are serialized; different circles proceed
// in parallel. Mutations are computed on a copy of the circle, the resulting
// effect is settled, and only then is the copy committed. A failed
// settlement therefore leaves the stored circle untouched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/yieldcircles/internal/identity"
	"github.com/mmynk/yieldcircles/internal/ledger"
	"github.com/mmynk/yieldcircles/internal/metrics"
	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/internal/settlement"
	"github.com/mmynk/yieldcircles/internal/storage"
)

// Config configures an Engine.
type Config struct {
	Ledger ledger.Config

	// Action is the identity action proofs must be bound to.
	// Defaults to identity.DefaultAction.
	Action string
}

// Engine runs circle operations.
type Engine struct {
	store    storage.Store
	ledger   *ledger.Ledger
	verifier identity.Verifier
	settler  settlement.Settler
	action   string
	locks    *circleLocks
	now      func() time.Time
}

// Receipt is the result of a ledger operation.
type Receipt struct {
	// Circle is the committed state after the operation.
	Circle *models.Circle

	// Effect is the settled transfer, or nil when no value moved.
	Effect *models.Effect
}

// EmergencyReceipt is the result of an emergency request or approval.
type EmergencyReceipt struct {
	Receipt
	RequesterID string
	Approvals   int
	Required    int
	Executed    bool
	Dropped     bool
}

// VerifyResult is the outcome of an identity verification.
type VerifyResult struct {
	Verified bool
	Detail   string
}

// New creates an Engine.
func New(store storage.Store, verifier identity.Verifier, settler settlement.Settler, cfg Config) (*Engine, error) {
	l, err := ledger.New(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	action := cfg.Action
	if action == "" {
		action = identity.DefaultAction
	}
	return &Engine{
		store:    store,
		ledger:   l,
		verifier: verifier,
		settler:  settler,
		action:   action,
		locks:    newCircleLocks(),
		now:      time.Now,
	}, nil
}

// RequiredApprovals returns the emergency quorum for circle.
func (e *Engine) RequiredApprovals(circle *models.Circle) int {
	return e.ledger.RequiredApprovals(circle)
}

// CreateCircle creates and persists a new circle in the forming state.
func (e *Engine) CreateCircle(ctx context.Context, name string, targetParticipantCount int) (circle *models.Circle, err error) {
	defer func() { record("create_circle", err) }()

	circle, err = e.ledger.CreateCircle(name, targetParticipantCount)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateCircle(ctx, circle); err != nil {
		return nil, fmt.Errorf("failed to store circle: %w", err)
	}

	slog.Info("Circle created",
		"circle_id", circle.ID,
		"name", circle.Name,
		"target_participants", circle.TargetParticipantCount,
	)
	return circle, nil
}

// GetCircle returns the committed state of a circle.
func (e *Engine) GetCircle(ctx context.Context, circleID string) (*models.Circle, error) {
	return e.load(ctx, circleID)
}

// ListCircles returns every circle without participants.
func (e *Engine) ListCircles(ctx context.Context) ([]*models.Circle, error) {
	return e.store.ListCircles(ctx)
}

// ListEffects returns the settlement journal of a circle, newest first.
func (e *Engine) ListEffects(ctx context.Context, circleID string) ([]*models.Effect, error) {
	if _, err := e.load(ctx, circleID); err != nil {
		return nil, err
	}
	return e.store.ListEffectsByCircle(ctx, circleID)
}

// Verify asks the identity oracle whether participantID may join circleID and
// records the verdict. The proof must be bound to the engine's action and to
// the circle ID as signal. An unreachable oracle counts as a failed
// verification and revokes any earlier success.
func (e *Engine) Verify(ctx context.Context, circleID, participantID string, proof identity.Proof) (result VerifyResult, err error) {
	defer func() { record("verify", err) }()

	if err := requireParticipant(participantID); err != nil {
		return VerifyResult{}, err
	}
	if _, err := e.load(ctx, circleID); err != nil {
		return VerifyResult{}, err
	}

	// The oracle is consulted outside the circle lock.
	res, verr := e.verifier.Verify(ctx, participantID, e.action, circleID, proof)
	switch {
	case verr != nil:
		slog.Warn("Identity verification unavailable",
			"circle_id", circleID,
			"participant_id", participantID,
			"error", verr,
		)
		result = VerifyResult{Verified: false, Detail: "verification unavailable: " + verr.Error()}
	default:
		result = VerifyResult{Verified: res.Success, Detail: res.Detail}
	}
	metrics.RecordVerification(result.Verified)

	// A cancelled caller is the usual way the oracle fails; the revocation
	// must still be written.
	_, _, err = e.mutate(context.WithoutCancel(ctx), circleID, func(c *models.Circle) (*models.Effect, error) {
		ledger.SetVerified(c, participantID, result.Verified)
		return nil, nil
	})
	if err != nil {
		return VerifyResult{}, err
	}

	slog.Info("Participant verification recorded",
		"circle_id", circleID,
		"participant_id", participantID,
		"verified", result.Verified,
	)
	return result, nil
}

// Deposit pulls amount from the participant into the circle. The first
// successful deposit into a circle without a recipient makes the depositor
// the recipient.
func (e *Engine) Deposit(ctx context.Context, circleID, participantID string, amount int64) (*Receipt, error) {
	return e.apply(ctx, "deposit", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return e.ledger.Deposit(c, participantID, amount)
	})
}

// Withdraw pays out part of the participant's contribution minus the exit fee.
func (e *Engine) Withdraw(ctx context.Context, circleID, participantID string, amount int64) (*Receipt, error) {
	return e.apply(ctx, "withdraw", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return e.ledger.Withdraw(c, participantID, amount)
	})
}

// ClaimPot pays the current recipient and rotates the circle to the next round.
func (e *Engine) ClaimPot(ctx context.Context, circleID, participantID string) (*Receipt, error) {
	return e.apply(ctx, "claim_pot", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return e.ledger.ClaimPot(c, participantID)
	})
}

// ClaimYield pays out the participant's accumulated yield.
func (e *Engine) ClaimYield(ctx context.Context, circleID, participantID string) (*Receipt, error) {
	return e.apply(ctx, "claim_yield", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return e.ledger.ClaimYield(c, participantID)
	})
}

// LeaveCircle pays out the participant's whole contribution minus the exit fee.
func (e *Engine) LeaveCircle(ctx context.Context, circleID, participantID string) (*Receipt, error) {
	return e.apply(ctx, "leave_circle", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return e.ledger.LeaveCircle(c, participantID)
	})
}

// RequestEmergencyWithdraw opens an emergency request for the participant's
// contribution, executing it at once if the requester alone meets the quorum.
func (e *Engine) RequestEmergencyWithdraw(ctx context.Context, circleID, participantID string) (*EmergencyReceipt, error) {
	return e.emergency(ctx, "request_emergency_withdraw", circleID, participantID, e.ledger.RequestEmergencyWithdraw)
}

// ApproveEmergencyWithdraw approves the circle's open emergency request. When
// the quorum is reached the requester is paid.
func (e *Engine) ApproveEmergencyWithdraw(ctx context.Context, circleID, participantID string) (*EmergencyReceipt, error) {
	return e.emergency(ctx, "approve_emergency_withdraw", circleID, participantID, e.ledger.ApproveEmergencyWithdraw)
}

// CancelEmergencyWithdraw abandons the open request. Only the requester may cancel.
func (e *Engine) CancelEmergencyWithdraw(ctx context.Context, circleID, participantID string) (*models.Circle, error) {
	receipt, err := e.apply(ctx, "cancel_emergency_withdraw", circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		return nil, e.ledger.CancelEmergencyWithdraw(c, participantID)
	})
	if err != nil {
		return nil, err
	}
	return receipt.Circle, nil
}

type emergencyFunc func(c *models.Circle, participantID string) (*ledger.EmergencyOutcome, error)

func (e *Engine) emergency(ctx context.Context, op, circleID, participantID string, fn emergencyFunc) (*EmergencyReceipt, error) {
	var outcome *ledger.EmergencyOutcome
	receipt, err := e.apply(ctx, op, circleID, participantID, func(c *models.Circle) (*models.Effect, error) {
		out, err := fn(c, participantID)
		if err != nil {
			return nil, err
		}
		outcome = out
		return out.Effect, nil
	})
	if err != nil {
		return nil, err
	}
	return &EmergencyReceipt{
		Receipt:     *receipt,
		RequesterID: outcome.RequesterID,
		Approvals:   outcome.Approvals,
		Required:    outcome.Required,
		Executed:    outcome.Executed,
		Dropped:     outcome.Dropped,
	}, nil
}

// apply wraps mutate with argument checks, logging and metrics.
func (e *Engine) apply(ctx context.Context, op, circleID, participantID string, fn func(*models.Circle) (*models.Effect, error)) (receipt *Receipt, err error) {
	defer func() { record(op, err) }()

	if err := requireParticipant(participantID); err != nil {
		return nil, err
	}

	circle, effect, err := e.mutate(ctx, circleID, fn)
	if err != nil {
		slog.Debug("Circle operation rejected",
			"operation", op,
			"circle_id", circleID,
			"participant_id", participantID,
			"error", err,
		)
		return nil, err
	}

	attrs := []any{
		"operation", op,
		"circle_id", circleID,
		"participant_id", participantID,
		"round", circle.RoundNumber,
		"pot", circle.Pot,
		"yield_pool", circle.YieldPool,
		"recipient_id", circle.CurrentRecipientID,
	}
	if effect != nil {
		attrs = append(attrs, "effect_id", effect.ID, "amount", effect.Amount, "fee", effect.Fee)
	}
	slog.Info("Circle operation committed", attrs...)

	return &Receipt{Circle: circle, Effect: effect}, nil
}

// mutate runs fn on a copy of the circle while holding the circle's lock,
// settles the effect fn returns and commits the copy only after the
// settlement succeeds.
func (e *Engine) mutate(ctx context.Context, circleID string, fn func(*models.Circle) (*models.Effect, error)) (*models.Circle, *models.Effect, error) {
	release, err := e.locks.acquire(ctx, circleID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	current, err := e.load(ctx, circleID)
	if err != nil {
		return nil, nil, err
	}

	next := current.Clone()
	effect, err := fn(next)
	if err != nil {
		return nil, nil, err
	}
	if effect != nil && effect.Amount <= 0 {
		effect = nil
	}

	if effect != nil {
		if err := e.settle(ctx, effect); err != nil {
			return nil, nil, err
		}
	}

	// Value may already have moved; a cancelled caller must not lose the commit.
	if err := e.store.SaveCircle(context.WithoutCancel(ctx), next, effect); err != nil {
		if effect != nil {
			slog.Error("Settled effect could not be committed",
				"circle_id", circleID,
				"effect_id", effect.ID,
				"error", err,
			)
		}
		return nil, nil, fmt.Errorf("failed to save circle: %w", err)
	}

	return next, effect, nil
}

// settle journals effect as pending, hands it to the settler and records the
// outcome on effect. On failure the journal entry is marked failed.
func (e *Engine) settle(ctx context.Context, effect *models.Effect) error {
	if err := e.store.CreateEffect(ctx, effect); err != nil {
		return fmt.Errorf("failed to journal effect: %w", err)
	}

	start := time.Now()
	serr := e.settler.Settle(ctx, *effect)
	metrics.RecordSettlement(string(effect.Kind), string(effect.Direction), effect.Amount, serr == nil, time.Since(start))

	effect.SettledAt = e.now().Unix()
	if serr != nil {
		effect.Status = models.EffectFailed
		if err := e.store.UpdateEffectStatus(context.WithoutCancel(ctx), effect.ID, effect.Status, effect.SettledAt); err != nil {
			slog.Error("Failed to mark effect failed", "effect_id", effect.ID, "error", err)
		}
		slog.Warn("Settlement failed, circle unchanged",
			"circle_id", effect.CircleID,
			"effect_id", effect.ID,
			"kind", effect.Kind,
			"amount", effect.Amount,
			"error", serr,
		)
		return fmt.Errorf("%w: %v", ledger.ErrSettlementFailed, serr)
	}

	effect.Status = models.EffectSettled
	return nil
}

func (e *Engine) load(ctx context.Context, circleID string) (*models.Circle, error) {
	circle, err := e.store.GetCircle(ctx, circleID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrCircleNotFound, circleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load circle: %w", err)
	}
	return circle, nil
}

func requireParticipant(participantID string) error {
	if strings.TrimSpace(participantID) == "" {
		return ledger.ErrInvalidParticipant
	}
	return nil
}

func record(op string, err error) {
	if err == nil {
		metrics.RecordOperation(op, "ok")
		return
	}
	metrics.RecordOperation(op, ledger.ClassOf(err).String())
}
