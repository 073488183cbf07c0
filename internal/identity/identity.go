// Package identity talks to the proof-of-personhood oracle that decides
// whether a participant may join a circle.
package identity

import "context"

// DefaultAction is the action identifier proofs are bound to.
const DefaultAction = "yield-circle-join"

// Proof is the zero-knowledge proof a client obtained from the oracle.
type Proof struct {
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
}

// Result is the oracle's verdict.
type Result struct {
	Success bool
	Detail  string
}

// Verifier checks a proof bound to an action and a signal.
// An error means the oracle could not be consulted; callers must treat it
// as a failed verification.
type Verifier interface {
	Verify(ctx context.Context, participantID, action, signal string, proof Proof) (Result, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, participantID, action, signal string, proof Proof) (Result, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, participantID, action, signal string, proof Proof) (Result, error) {
	return f(ctx, participantID, action, signal, proof)
}

// StaticVerifier accepts every proof. It is meant for local development
// where no oracle is reachable.
type StaticVerifier struct{}

// Verify always succeeds.
func (StaticVerifier) Verify(ctx context.Context, participantID, action, signal string, proof Proof) (Result, error) {
	return Result{Success: true, Detail: "static verifier"}, nil
}
