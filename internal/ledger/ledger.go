// Package ledger implements the per-circle accounting rules: participant
// registration, deposits, withdrawals, pot rotation, yield claims and the
// emergency-withdrawal quorum.
//
// Every operation validates all of its preconditions before touching the
// circle, so a returned error always means the circle is unchanged. The
// ledger does not move value itself; operations that do return a pending
// models.Effect for the settlement layer.
//
// Invariants maintained by every operation:
//   - circle.Pot equals the sum of participant contributions
//   - circle.YieldPool equals the sum of participant yield earned
//   - no balance is ever negative
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/yieldcircles/internal/calculator"
	"github.com/mmynk/yieldcircles/internal/models"
)

// Config holds the ledger's rates.
type Config struct {
	YieldRate     calculator.Rate
	ExitFeeRate   calculator.Rate
	QuorumPercent int
}

// DefaultConfig returns the reference rates: 10% yield, 5% exit fee, 80% quorum.
func DefaultConfig() Config {
	return Config{
		YieldRate:     calculator.DefaultYieldRate,
		ExitFeeRate:   calculator.DefaultExitFeeRate,
		QuorumPercent: calculator.DefaultQuorumPercent,
	}
}

// Ledger applies circle operations using a fixed Config.
type Ledger struct {
	cfg Config
	now func() time.Time
}

// New creates a Ledger after validating cfg.
func New(cfg Config) (*Ledger, error) {
	if err := cfg.YieldRate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: yield rate %d bps", ErrInvalidConfiguration, cfg.YieldRate)
	}
	if err := cfg.ExitFeeRate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: exit fee rate %d bps", ErrInvalidConfiguration, cfg.ExitFeeRate)
	}
	if cfg.QuorumPercent <= 0 || cfg.QuorumPercent > 100 {
		return nil, fmt.Errorf("%w: quorum %d%%", ErrInvalidConfiguration, cfg.QuorumPercent)
	}
	return &Ledger{cfg: cfg, now: time.Now}, nil
}

// Config returns the ledger's configuration.
func (l *Ledger) Config() Config {
	return l.cfg
}

// CreateCircle returns a new circle in the forming state. The ID is assigned
// by the store.
func (l *Ledger) CreateCircle(name string, targetParticipantCount int) (*models.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: circle name required", ErrInvalidConfiguration)
	}
	if targetParticipantCount <= 0 {
		return nil, fmt.Errorf("%w: target participant count must be positive, got %d",
			ErrInvalidConfiguration, targetParticipantCount)
	}
	return &models.Circle{
		Name:                   name,
		TargetParticipantCount: targetParticipantCount,
		RoundNumber:            1,
		CreatedAt:              l.now().Unix(),
	}, nil
}

// Deposit credits amount to the participant. The pot share is added to both
// the pot and the participant's contribution; the yield share goes to the
// yield pool and the participant's yield earned. If the circle has no
// recipient, the depositor becomes the recipient.
func (l *Ledger) Deposit(c *models.Circle, participantID string, amount int64) (*models.Effect, error) {
	p := c.Participant(participantID)
	if p == nil || !p.Verified {
		return nil, ErrNotVerified
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit must be positive", ErrInvalidAmount)
	}

	potShare, yieldShare, err := calculator.SplitDeposit(amount, l.cfg.YieldRate)
	if err != nil {
		return nil, err
	}
	pot, err := calculator.Add(c.Pot, potShare)
	if err != nil {
		return nil, err
	}
	yieldPool, err := calculator.Add(c.YieldPool, yieldShare)
	if err != nil {
		return nil, err
	}
	total, err := calculator.Add(p.TotalDeposited, amount)
	if err != nil {
		return nil, err
	}

	c.Pot = pot
	c.YieldPool = yieldPool
	p.Contribution += potShare
	p.YieldEarned += yieldShare
	p.TotalDeposited = total
	p.Departed = false
	if c.CurrentRecipientID == "" {
		c.CurrentRecipientID = p.ID
	}

	return l.effect(c, p.ID, models.EffectDeposit, models.DirectionDeposit, amount, 0), nil
}

// Withdraw removes amount from the participant's contribution and pays it
// out minus the exit fee. The fee leaves circulation.
func (l *Ledger) Withdraw(c *models.Circle, participantID string, amount int64) (*models.Effect, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal must be positive", ErrInvalidAmount)
	}
	p := c.Participant(participantID)
	if p == nil {
		return nil, ErrInsufficientBalance
	}
	if c.CurrentRecipientID == p.ID {
		return nil, ErrRecipientCannotWithdraw
	}
	if amount > p.Contribution {
		return nil, fmt.Errorf("%w: requested %d, contributed %d", ErrInsufficientBalance, amount, p.Contribution)
	}

	payout, fee, err := calculator.ApplyExitFee(amount, l.cfg.ExitFeeRate)
	if err != nil {
		return nil, err
	}

	c.Pot -= amount
	p.Contribution -= amount
	l.dropStaleEmergency(c)

	return l.effect(c, p.ID, models.EffectWithdraw, models.DirectionPayout, payout, fee), nil
}

// ClaimPot pays the current recipient everything in the pot beyond their own
// contribution, which stays in the circle. The other participants'
// contributions are consumed by the claim. The round advances and the
// recipient rotates to the next eligible participant.
//
// A claim with nothing beyond the recipient's own contribution is valid: the
// round still advances and no effect is returned.
func (l *Ledger) ClaimPot(c *models.Circle, participantID string) (*models.Effect, error) {
	if participantID == "" || participantID != c.CurrentRecipientID {
		return nil, ErrNotRecipient
	}
	p := c.Participant(participantID)
	if p == nil {
		return nil, ErrNotRecipient
	}

	claim := c.Pot - p.Contribution
	for _, other := range c.Participants {
		if other.ID != p.ID {
			other.Contribution = 0
		}
	}
	c.Pot = p.Contribution
	c.RoundNumber++
	p.TimesRecipient++
	c.CurrentRecipientID = nextRecipient(c, p.ID)
	l.dropStaleEmergency(c)

	if claim == 0 {
		return nil, nil
	}
	return l.effect(c, p.ID, models.EffectClaimPot, models.DirectionPayout, claim, 0), nil
}

// ClaimYield pays out the participant's accumulated yield.
func (l *Ledger) ClaimYield(c *models.Circle, participantID string) (*models.Effect, error) {
	p := c.Participant(participantID)
	if p == nil || p.YieldEarned <= 0 {
		return nil, ErrNothingToClaim
	}

	amount := p.YieldEarned
	c.YieldPool -= amount
	p.YieldEarned = 0

	return l.effect(c, p.ID, models.EffectClaimYield, models.DirectionPayout, amount, 0), nil
}

// LeaveCircle withdraws the participant's entire contribution, minus the
// exit fee. A participant may only leave once a full round has elapsed or
// after having been a recipient, and never while being the recipient.
func (l *Ledger) LeaveCircle(c *models.Circle, participantID string) (*models.Effect, error) {
	p := c.Participant(participantID)
	switch {
	case p == nil, p.Contribution <= 0:
		return nil, fmt.Errorf("%w: no contribution to withdraw", ErrLeaveNotAllowedYet)
	case c.CurrentRecipientID == p.ID:
		return nil, fmt.Errorf("%w: current recipient must claim first", ErrLeaveNotAllowedYet)
	case c.RoundNumber <= 1 && p.TimesRecipient == 0:
		return nil, fmt.Errorf("%w: first round still in progress", ErrLeaveNotAllowedYet)
	}

	amount := p.Contribution
	payout, fee, err := calculator.ApplyExitFee(amount, l.cfg.ExitFeeRate)
	if err != nil {
		return nil, err
	}

	c.Pot -= amount
	p.Contribution = 0
	p.Departed = true
	l.dropStaleEmergency(c)

	return l.effect(c, p.ID, models.EffectLeave, models.DirectionPayout, payout, fee), nil
}

// nextRecipient walks the join order starting after claimantID and returns
// the first eligible participant other than the claimant, or "" if none.
func nextRecipient(c *models.Circle, claimantID string) string {
	start := -1
	for i, p := range c.Participants {
		if p.ID == claimantID {
			start = i
			break
		}
	}
	n := len(c.Participants)
	for step := 1; step < n; step++ {
		p := c.Participants[(start+step+n)%n]
		if eligibleRecipient(p) {
			return p.ID
		}
	}
	return ""
}

func eligibleRecipient(p *models.Participant) bool {
	return p.Verified && !p.Departed && p.TotalDeposited > 0
}

func (l *Ledger) effect(c *models.Circle, participantID string, kind models.EffectKind, dir models.Direction, amount, fee int64) *models.Effect {
	return &models.Effect{
		CircleID:      c.ID,
		ParticipantID: participantID,
		Kind:          kind,
		Direction:     dir,
		Amount:        amount,
		Fee:           fee,
		Status:        models.EffectPending,
		CreatedAt:     l.now().Unix(),
	}
}
