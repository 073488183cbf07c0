package ledger

import (
	"errors"

	"github.com/mmynk/yieldcircles/internal/calculator"
)

// Input errors: the request itself is malformed.
var (
	ErrInvalidAmount        = calculator.ErrInvalidAmount
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidParticipant   = errors.New("participant id required")
)

// Permission errors: the request is well formed but not allowed in the
// circle's current state.
var (
	ErrNotVerified             = errors.New("participant is not verified")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrRecipientCannotWithdraw = errors.New("current recipient cannot withdraw")
	ErrNotRecipient            = errors.New("participant is not the current recipient")
	ErrNothingToClaim          = errors.New("nothing to claim")
	ErrLeaveNotAllowedYet      = errors.New("leaving is not allowed yet")
	ErrNoOpenRequest           = errors.New("no open emergency request")
	ErrAlreadyApproved         = errors.New("emergency request already approved by participant")
	ErrEmergencyRequestPending = errors.New("another emergency request is open")
	ErrNotRequester            = errors.New("participant did not open the emergency request")
)

// ErrCircleNotFound is returned when no circle exists for an ID.
var ErrCircleNotFound = errors.New("circle not found")

// ErrSettlementFailed wraps a failure reported by the settlement layer.
// The ledger mutation that produced the effect is not committed.
var ErrSettlementFailed = errors.New("settlement failed")

// Class groups errors by how a caller should react to them.
type Class int

const (
	// ClassUnknown is an unexpected internal error.
	ClassUnknown Class = iota
	// ClassInvalidInput means the input was invalid; retrying will not help.
	ClassInvalidInput
	// ClassNotPermitted means the operation is not allowed right now.
	ClassNotPermitted
	// ClassNotFound means the referenced circle does not exist.
	ClassNotFound
	// ClassExternal means an external step failed; the caller may retry.
	ClassExternal
)

func (c Class) String() string {
	switch c {
	case ClassInvalidInput:
		return "invalid_input"
	case ClassNotPermitted:
		return "not_permitted"
	case ClassNotFound:
		return "not_found"
	case ClassExternal:
		return "external"
	default:
		return "unknown"
	}
}

var permissionErrors = []error{
	ErrNotVerified,
	ErrInsufficientBalance,
	ErrRecipientCannotWithdraw,
	ErrNotRecipient,
	ErrNothingToClaim,
	ErrLeaveNotAllowedYet,
	ErrNoOpenRequest,
	ErrAlreadyApproved,
	ErrEmergencyRequestPending,
	ErrNotRequester,
}

// ClassOf classifies err.
func ClassOf(err error) Class {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrInvalidParticipant),
		errors.Is(err, calculator.ErrInvalidRate):
		return ClassInvalidInput
	case errors.Is(err, ErrCircleNotFound):
		return ClassNotFound
	case errors.Is(err, ErrSettlementFailed):
		return ClassExternal
	}
	for _, target := range permissionErrors {
		if errors.Is(err, target) {
			return ClassNotPermitted
		}
	}
	return ClassUnknown
}
