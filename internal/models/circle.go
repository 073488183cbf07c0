package models

// CircleState describes where a circle is in its lifecycle.
type CircleState string

const (
	// CircleForming means no recipient has been assigned yet.
	CircleForming CircleState = "forming"
	// CircleActive means a recipient has been assigned and rounds are proceeding.
	CircleActive CircleState = "active"
)

// Circle represents a rotating savings group.
type Circle struct {
	// ID is the unique identifier for the circle (UUID format). Immutable.
	ID string

	// Name is the display label, immutable after creation.
	Name string

	// TargetParticipantCount is the intended group size, fixed at creation.
	// Emergency quorum thresholds are computed from it.
	TargetParticipantCount int

	// RoundNumber starts at 1 and increments once per completed claim.
	RoundNumber int

	// Pot is the sum of all participants' contributions currently held.
	Pot int64

	// YieldPool is the accumulated yield share not yet claimed.
	YieldPool int64

	// CurrentRecipientID is the participant entitled to claim the pot in
	// the current round. Empty means none.
	CurrentRecipientID string

	// PendingEmergencyApprovals counts distinct approvals for the open
	// emergency request. Zero when no request is open.
	PendingEmergencyApprovals int

	// Emergency is the open emergency-withdrawal request, or nil.
	Emergency *EmergencyRequest

	// Participants are the circle's members in join order.
	Participants []*Participant

	// CreatedAt is the Unix timestamp when the circle was created.
	CreatedAt int64
}

// EmergencyRequest tracks who is owed an emergency payout while approvals
// are collected.
type EmergencyRequest struct {
	// RequesterID is the participant who will receive the payout.
	RequesterID string

	// OpenedAt is the Unix timestamp when the request was opened.
	OpenedAt int64
}

// State reports whether the circle is still forming or already active.
// A circle becomes active on its first recipient assignment and never goes back.
func (c *Circle) State() CircleState {
	if c.CurrentRecipientID != "" || c.RoundNumber > 1 {
		return CircleActive
	}
	return CircleForming
}

// Participant returns the member with the given ID, or nil.
func (c *Circle) Participant(id string) *Participant {
	for _, p := range c.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of the circle.
func (c *Circle) Clone() *Circle {
	out := *c
	if c.Emergency != nil {
		req := *c.Emergency
		out.Emergency = &req
	}
	out.Participants = make([]*Participant, len(c.Participants))
	for i, p := range c.Participants {
		cp := *p
		out.Participants[i] = &cp
	}
	return &out
}
