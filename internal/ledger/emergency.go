package ledger

import (
	"fmt"

	"github.com/mmynk/yieldcircles/internal/calculator"
	"github.com/mmynk/yieldcircles/internal/models"
)

// EmergencyOutcome reports the state of an emergency request after a
// request or approval.
type EmergencyOutcome struct {
	RequesterID string
	Approvals   int
	Required    int

	// Executed is true when the quorum was reached and the requester's
	// contribution was released by Effect.
	Executed bool
	Effect   *models.Effect

	// Dropped is true when the request was abandoned because the requester
	// had nothing left to release.
	Dropped bool
}

// RequiredApprovals is the number of approvals that release an emergency
// withdrawal in c.
func (l *Ledger) RequiredApprovals(c *models.Circle) int {
	return calculator.RequiredApprovals(c.TargetParticipantCount, l.cfg.QuorumPercent)
}

// RequestEmergencyWithdraw opens an emergency request for the participant's
// whole contribution. The request counts as the requester's own approval,
// so the requester must qualify as an approver. Only one request may be open
// per circle.
func (l *Ledger) RequestEmergencyWithdraw(c *models.Circle, participantID string) (*EmergencyOutcome, error) {
	p := c.Participant(participantID)
	if err := canApprove(p); err != nil {
		return nil, err
	}
	if p.Contribution <= 0 {
		return nil, ErrInsufficientBalance
	}
	if c.Emergency != nil {
		if c.Emergency.RequesterID == p.ID {
			return nil, ErrAlreadyApproved
		}
		return nil, ErrEmergencyRequestPending
	}

	c.Emergency = &models.EmergencyRequest{RequesterID: p.ID, OpenedAt: l.now().Unix()}
	p.HasApprovedEmergency = true
	c.PendingEmergencyApprovals++

	return l.resolveEmergency(c), nil
}

// ApproveEmergencyWithdraw adds the participant's approval to the open
// request. When the quorum is reached the payout goes to the requester, not
// the approver.
func (l *Ledger) ApproveEmergencyWithdraw(c *models.Circle, participantID string) (*EmergencyOutcome, error) {
	if c.Emergency == nil {
		return nil, ErrNoOpenRequest
	}
	p := c.Participant(participantID)
	if err := canApprove(p); err != nil {
		return nil, err
	}
	if p.HasApprovedEmergency {
		return nil, ErrAlreadyApproved
	}

	p.HasApprovedEmergency = true
	c.PendingEmergencyApprovals++

	return l.resolveEmergency(c), nil
}

// CancelEmergencyWithdraw lets the requester abandon the open request.
func (l *Ledger) CancelEmergencyWithdraw(c *models.Circle, participantID string) error {
	if c.Emergency == nil {
		return ErrNoOpenRequest
	}
	if c.Emergency.RequesterID != participantID {
		return ErrNotRequester
	}
	resetEmergency(c)
	return nil
}

// resolveEmergency executes the open request if it has enough approvals.
// The release is fee exempt. A request whose requester has nothing left to
// release is dropped instead of executed.
func (l *Ledger) resolveEmergency(c *models.Circle) *EmergencyOutcome {
	out := &EmergencyOutcome{
		RequesterID: c.Emergency.RequesterID,
		Approvals:   c.PendingEmergencyApprovals,
		Required:    l.RequiredApprovals(c),
	}
	requester := c.Participant(out.RequesterID)
	if requester == nil || requester.Contribution <= 0 {
		resetEmergency(c)
		out.Dropped = true
		return out
	}
	if out.Approvals < out.Required {
		return out
	}

	amount := requester.Contribution
	c.Pot -= amount
	requester.Contribution = 0
	resetEmergency(c)

	out.Executed = true
	out.Effect = l.effect(c, requester.ID, models.EffectEmergencyWithdraw, models.DirectionPayout, amount, 0)
	return out
}

// canApprove reports whether p may take part in an emergency vote: a
// verified member who has not left the circle.
func canApprove(p *models.Participant) error {
	switch {
	case p == nil || !p.Verified:
		return ErrNotVerified
	case p.Departed:
		return fmt.Errorf("%w: participant has left the circle", ErrNotVerified)
	}
	return nil
}

// dropStaleEmergency abandons the open request once the requester no longer
// has anything to release.
func (l *Ledger) dropStaleEmergency(c *models.Circle) {
	if c.Emergency == nil {
		return
	}
	if p := c.Participant(c.Emergency.RequesterID); p == nil || p.Contribution == 0 {
		resetEmergency(c)
	}
}

func resetEmergency(c *models.Circle) {
	c.Emergency = nil
	c.PendingEmergencyApprovals = 0
	for _, p := range c.Participants {
		p.HasApprovedEmergency = false
	}
}
