package calculator

import (
	"errors"
	"math"
)

var (
	// ErrInvalidAmount is returned for negative amounts and for arithmetic
	// that would overflow an int64 balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRate is returned for rates outside [0, 10000) basis points.
	ErrInvalidRate = errors.New("invalid rate")
)

// Rate is a fraction expressed in basis points (1/10000).
type Rate int64

const (
	// BasisPoints is the denominator of a Rate.
	BasisPoints Rate = 10000

	// DefaultYieldRate is the share of each deposit routed to the yield pool (10%).
	DefaultYieldRate Rate = 1000

	// DefaultExitFeeRate is the fee deducted on voluntary withdrawal or leave (5%).
	DefaultExitFeeRate Rate = 500

	// DefaultQuorumPercent is the share of target participants that must
	// approve an emergency withdrawal.
	DefaultQuorumPercent = 80
)

// Validate reports whether r lies in [0, BasisPoints).
func (r Rate) Validate() error {
	if r < 0 || r >= BasisPoints {
		return ErrInvalidRate
	}
	return nil
}

// Share returns floor(amount * r). It never overflows: amount is split into
// whole multiples of BasisPoints and a remainder before multiplying.
func (r Rate) Share(amount int64) int64 {
	q, rem := amount/int64(BasisPoints), amount%int64(BasisPoints)
	return q*int64(r) + rem*int64(r)/int64(BasisPoints)
}

// SplitDeposit divides a deposit into the part kept in the pot and the part
// routed to the yield pool.
//
// Rounding: the yield share is rounded down to the smallest unit and the pot
// share absorbs the remainder, so potShare + yieldShare == amount exactly.
func SplitDeposit(amount int64, yieldRate Rate) (potShare, yieldShare int64, err error) {
	if amount < 0 {
		return 0, 0, ErrInvalidAmount
	}
	if err := yieldRate.Validate(); err != nil {
		return 0, 0, err
	}
	yieldShare = yieldRate.Share(amount)
	return amount - yieldShare, yieldShare, nil
}

// ApplyExitFee deducts the exit fee from amount.
//
// Rounding: the fee is rounded down, so payout + fee == amount exactly.
func ApplyExitFee(amount int64, feeRate Rate) (payout, fee int64, err error) {
	if amount < 0 {
		return 0, 0, ErrInvalidAmount
	}
	if err := feeRate.Validate(); err != nil {
		return 0, 0, err
	}
	fee = feeRate.Share(amount)
	return amount - fee, fee, nil
}

// RequiredApprovals computes ceil(target * quorumPercent / 100) in integer math.
// Examples: target 5 at 80% needs 4, target 10 at 80% needs 8.
func RequiredApprovals(target, quorumPercent int) int {
	if target <= 0 || quorumPercent <= 0 {
		return 0
	}
	return (target*quorumPercent + 99) / 100
}

// Add returns a+b, failing with ErrInvalidAmount on overflow or negative input.
func Add(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if a > math.MaxInt64-b {
		return 0, ErrInvalidAmount
	}
	return a + b, nil
}
