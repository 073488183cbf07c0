package models

// Participant represents one identity's membership in a circle.
// Records are never removed on a zero balance so yield history survives re-entry.
type Participant struct {
	// ID identifies the participant within the circle (device or account identifier).
	ID string

	// JoinSeq is the order in which the participant joined. Rotation follows it.
	JoinSeq int

	// Verified is set only from an identity-verification result and is reset
	// to false on any verification failure.
	Verified bool

	// Contribution is the amount held in the pot on this participant's behalf.
	Contribution int64

	// YieldEarned is the yield attributable to this participant, claimable
	// independently of Contribution.
	YieldEarned int64

	// HasApprovedEmergency is true once the participant approved the open
	// emergency request. Reset when the request resolves.
	HasApprovedEmergency bool

	// TotalDeposited is the lifetime gross amount deposited.
	TotalDeposited int64

	// TimesRecipient counts completed pot claims by this participant.
	TimesRecipient int

	// Departed is set when the participant leaves the circle and cleared by
	// their next deposit.
	Departed bool
}
