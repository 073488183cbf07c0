// Package api defines the circles.v1.CircleService RPC contract: procedure
// names, request and response messages, a Connect handler constructor and a
// typed client.
//
// Messages are plain Go structs exchanged as JSON in the Connect protocol's
// field conventions: lowerCamelCase names and 64-bit integers written as
// strings. Int64 fields also accept bare JSON numbers on input.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CircleServiceName is the fully-qualified name of the CircleService service.
const CircleServiceName = "circles.v1.CircleService"

// Procedure paths of the CircleService RPCs.
const (
	CircleServiceCreateCircleProcedure             = "/circles.v1.CircleService/CreateCircle"
	CircleServiceGetCircleProcedure                = "/circles.v1.CircleService/GetCircle"
	CircleServiceListCirclesProcedure              = "/circles.v1.CircleService/ListCircles"
	CircleServiceVerifyProcedure                   = "/circles.v1.CircleService/Verify"
	CircleServiceDepositProcedure                  = "/circles.v1.CircleService/Deposit"
	CircleServiceWithdrawProcedure                 = "/circles.v1.CircleService/Withdraw"
	CircleServiceClaimPotProcedure                 = "/circles.v1.CircleService/ClaimPot"
	CircleServiceClaimYieldProcedure               = "/circles.v1.CircleService/ClaimYield"
	CircleServiceLeaveCircleProcedure              = "/circles.v1.CircleService/LeaveCircle"
	CircleServiceRequestEmergencyWithdrawProcedure = "/circles.v1.CircleService/RequestEmergencyWithdraw"
	CircleServiceApproveEmergencyWithdrawProcedure = "/circles.v1.CircleService/ApproveEmergencyWithdraw"
	CircleServiceCancelEmergencyWithdrawProcedure  = "/circles.v1.CircleService/CancelEmergencyWithdraw"
	CircleServiceListEffectsProcedure              = "/circles.v1.CircleService/ListEffects"
)

// PublicProcedures are the read-only procedures served without a caller
// identity.
var PublicProcedures = []string{
	CircleServiceGetCircleProcedure,
	CircleServiceListCirclesProcedure,
	CircleServiceListEffectsProcedure,
}

// jsonCodec marshals messages with encoding/json under the codec name
// Connect uses for application/json payloads.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}

// WithJSON makes a Connect handler or client exchange the messages of this
// package as JSON.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
