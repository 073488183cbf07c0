package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// CircleServiceHandler is implemented by the server side of CircleService.
type CircleServiceHandler interface {
	CreateCircle(context.Context, *connect.Request[CreateCircleRequest]) (*connect.Response[CreateCircleResponse], error)
	GetCircle(context.Context, *connect.Request[GetCircleRequest]) (*connect.Response[GetCircleResponse], error)
	ListCircles(context.Context, *connect.Request[ListCirclesRequest]) (*connect.Response[ListCirclesResponse], error)
	Verify(context.Context, *connect.Request[VerifyRequest]) (*connect.Response[VerifyResponse], error)
	Deposit(context.Context, *connect.Request[DepositRequest]) (*connect.Response[OperationResponse], error)
	Withdraw(context.Context, *connect.Request[WithdrawRequest]) (*connect.Response[OperationResponse], error)
	ClaimPot(context.Context, *connect.Request[ClaimPotRequest]) (*connect.Response[OperationResponse], error)
	ClaimYield(context.Context, *connect.Request[ClaimYieldRequest]) (*connect.Response[OperationResponse], error)
	LeaveCircle(context.Context, *connect.Request[LeaveCircleRequest]) (*connect.Response[OperationResponse], error)
	RequestEmergencyWithdraw(context.Context, *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[EmergencyWithdrawResponse], error)
	ApproveEmergencyWithdraw(context.Context, *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[EmergencyWithdrawResponse], error)
	CancelEmergencyWithdraw(context.Context, *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[CancelEmergencyWithdrawResponse], error)
	ListEffects(context.Context, *connect.Request[ListEffectsRequest]) (*connect.Response[ListEffectsResponse], error)
}

// NewCircleServiceHandler builds an HTTP handler serving svc. It returns the
// path to mount the handler on.
func NewCircleServiceHandler(svc CircleServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	read := append([]connect.HandlerOption{connect.WithIdempotency(connect.IdempotencyNoSideEffects)}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CircleServiceCreateCircleProcedure, connect.NewUnaryHandler(CircleServiceCreateCircleProcedure, svc.CreateCircle, opts...))
	mux.Handle(CircleServiceGetCircleProcedure, connect.NewUnaryHandler(CircleServiceGetCircleProcedure, svc.GetCircle, read...))
	mux.Handle(CircleServiceListCirclesProcedure, connect.NewUnaryHandler(CircleServiceListCirclesProcedure, svc.ListCircles, read...))
	mux.Handle(CircleServiceVerifyProcedure, connect.NewUnaryHandler(CircleServiceVerifyProcedure, svc.Verify, opts...))
	mux.Handle(CircleServiceDepositProcedure, connect.NewUnaryHandler(CircleServiceDepositProcedure, svc.Deposit, opts...))
	mux.Handle(CircleServiceWithdrawProcedure, connect.NewUnaryHandler(CircleServiceWithdrawProcedure, svc.Withdraw, opts...))
	mux.Handle(CircleServiceClaimPotProcedure, connect.NewUnaryHandler(CircleServiceClaimPotProcedure, svc.ClaimPot, opts...))
	mux.Handle(CircleServiceClaimYieldProcedure, connect.NewUnaryHandler(CircleServiceClaimYieldProcedure, svc.ClaimYield, opts...))
	mux.Handle(CircleServiceLeaveCircleProcedure, connect.NewUnaryHandler(CircleServiceLeaveCircleProcedure, svc.LeaveCircle, opts...))
	mux.Handle(CircleServiceRequestEmergencyWithdrawProcedure, connect.NewUnaryHandler(CircleServiceRequestEmergencyWithdrawProcedure, svc.RequestEmergencyWithdraw, opts...))
	mux.Handle(CircleServiceApproveEmergencyWithdrawProcedure, connect.NewUnaryHandler(CircleServiceApproveEmergencyWithdrawProcedure, svc.ApproveEmergencyWithdraw, opts...))
	mux.Handle(CircleServiceCancelEmergencyWithdrawProcedure, connect.NewUnaryHandler(CircleServiceCancelEmergencyWithdrawProcedure, svc.CancelEmergencyWithdraw, opts...))
	mux.Handle(CircleServiceListEffectsProcedure, connect.NewUnaryHandler(CircleServiceListEffectsProcedure, svc.ListEffects, read...))

	return "/" + CircleServiceName + "/", mux
}
