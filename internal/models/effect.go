package models

// Direction says which way value moves between the participant and the circle.
type Direction string

const (
	// DirectionDeposit moves value from the participant into the circle.
	DirectionDeposit Direction = "deposit"
	// DirectionPayout moves value from the circle to the participant.
	DirectionPayout Direction = "payout"
)

// EffectKind names the engine operation that produced an effect.
type EffectKind string

const (
	EffectDeposit           EffectKind = "deposit"
	EffectWithdraw          EffectKind = "withdraw"
	EffectClaimPot          EffectKind = "claim_pot"
	EffectClaimYield        EffectKind = "claim_yield"
	EffectLeave             EffectKind = "leave"
	EffectEmergencyWithdraw EffectKind = "emergency_withdraw"
)

// EffectStatus is the settlement outcome of an effect.
type EffectStatus string

const (
	EffectPending EffectStatus = "pending"
	EffectSettled EffectStatus = "settled"
	EffectFailed  EffectStatus = "failed"
)

// Effect represents a transfer the settlement layer must execute.
// The ledger state change that produced it is only committed once the
// effect is settled.
type Effect struct {
	// ID is the unique identifier for the effect (UUID format).
	ID string

	// CircleID is the circle whose ledger produced the effect.
	CircleID string

	// ParticipantID is the counterparty of the transfer.
	ParticipantID string

	// Kind is the operation that produced the effect.
	Kind EffectKind

	// Direction is deposit (participant pays in) or payout (circle pays out).
	Direction Direction

	// Amount is the value to transfer.
	Amount int64

	// Fee is the exit fee retained from the gross amount, if any.
	// It is informational; Amount is already net of it.
	Fee int64

	// Status tracks settlement progress.
	Status EffectStatus

	// CreatedAt is the Unix timestamp when the effect was journaled.
	CreatedAt int64

	// SettledAt is the Unix timestamp of the settlement outcome, or 0.
	SettledAt int64
}
