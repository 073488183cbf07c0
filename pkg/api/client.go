package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// CircleServiceClient is a client for CircleService.
type CircleServiceClient struct {
	createCircle             *connect.Client[CreateCircleRequest, CreateCircleResponse]
	getCircle                *connect.Client[GetCircleRequest, GetCircleResponse]
	listCircles              *connect.Client[ListCirclesRequest, ListCirclesResponse]
	verify                   *connect.Client[VerifyRequest, VerifyResponse]
	deposit                  *connect.Client[DepositRequest, OperationResponse]
	withdraw                 *connect.Client[WithdrawRequest, OperationResponse]
	claimPot                 *connect.Client[ClaimPotRequest, OperationResponse]
	claimYield               *connect.Client[ClaimYieldRequest, OperationResponse]
	leaveCircle              *connect.Client[LeaveCircleRequest, OperationResponse]
	requestEmergencyWithdraw *connect.Client[EmergencyWithdrawRequest, EmergencyWithdrawResponse]
	approveEmergencyWithdraw *connect.Client[EmergencyWithdrawRequest, EmergencyWithdrawResponse]
	cancelEmergencyWithdraw  *connect.Client[EmergencyWithdrawRequest, CancelEmergencyWithdrawResponse]
	listEffects              *connect.Client[ListEffectsRequest, ListEffectsResponse]
}

// NewCircleServiceClient creates a client for the CircleService served at
// baseURL, e.g. http://localhost:8080.
func NewCircleServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CircleServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &CircleServiceClient{
		createCircle:             connect.NewClient[CreateCircleRequest, CreateCircleResponse](httpClient, baseURL+CircleServiceCreateCircleProcedure, opts...),
		getCircle:                connect.NewClient[GetCircleRequest, GetCircleResponse](httpClient, baseURL+CircleServiceGetCircleProcedure, opts...),
		listCircles:              connect.NewClient[ListCirclesRequest, ListCirclesResponse](httpClient, baseURL+CircleServiceListCirclesProcedure, opts...),
		verify:                   connect.NewClient[VerifyRequest, VerifyResponse](httpClient, baseURL+CircleServiceVerifyProcedure, opts...),
		deposit:                  connect.NewClient[DepositRequest, OperationResponse](httpClient, baseURL+CircleServiceDepositProcedure, opts...),
		withdraw:                 connect.NewClient[WithdrawRequest, OperationResponse](httpClient, baseURL+CircleServiceWithdrawProcedure, opts...),
		claimPot:                 connect.NewClient[ClaimPotRequest, OperationResponse](httpClient, baseURL+CircleServiceClaimPotProcedure, opts...),
		claimYield:               connect.NewClient[ClaimYieldRequest, OperationResponse](httpClient, baseURL+CircleServiceClaimYieldProcedure, opts...),
		leaveCircle:              connect.NewClient[LeaveCircleRequest, OperationResponse](httpClient, baseURL+CircleServiceLeaveCircleProcedure, opts...),
		requestEmergencyWithdraw: connect.NewClient[EmergencyWithdrawRequest, EmergencyWithdrawResponse](httpClient, baseURL+CircleServiceRequestEmergencyWithdrawProcedure, opts...),
		approveEmergencyWithdraw: connect.NewClient[EmergencyWithdrawRequest, EmergencyWithdrawResponse](httpClient, baseURL+CircleServiceApproveEmergencyWithdrawProcedure, opts...),
		cancelEmergencyWithdraw:  connect.NewClient[EmergencyWithdrawRequest, CancelEmergencyWithdrawResponse](httpClient, baseURL+CircleServiceCancelEmergencyWithdrawProcedure, opts...),
		listEffects:              connect.NewClient[ListEffectsRequest, ListEffectsResponse](httpClient, baseURL+CircleServiceListEffectsProcedure, opts...),
	}
}

// CreateCircle calls circles.v1.CircleService.CreateCircle.
func (c *CircleServiceClient) CreateCircle(ctx context.Context, req *connect.Request[CreateCircleRequest]) (*connect.Response[CreateCircleResponse], error) {
	return c.createCircle.CallUnary(ctx, req)
}

// GetCircle calls circles.v1.CircleService.GetCircle.
func (c *CircleServiceClient) GetCircle(ctx context.Context, req *connect.Request[GetCircleRequest]) (*connect.Response[GetCircleResponse], error) {
	return c.getCircle.CallUnary(ctx, req)
}

// ListCircles calls circles.v1.CircleService.ListCircles.
func (c *CircleServiceClient) ListCircles(ctx context.Context, req *connect.Request[ListCirclesRequest]) (*connect.Response[ListCirclesResponse], error) {
	return c.listCircles.CallUnary(ctx, req)
}

// Verify calls circles.v1.CircleService.Verify.
func (c *CircleServiceClient) Verify(ctx context.Context, req *connect.Request[VerifyRequest]) (*connect.Response[VerifyResponse], error) {
	return c.verify.CallUnary(ctx, req)
}

// Deposit calls circles.v1.CircleService.Deposit.
func (c *CircleServiceClient) Deposit(ctx context.Context, req *connect.Request[DepositRequest]) (*connect.Response[OperationResponse], error) {
	return c.deposit.CallUnary(ctx, req)
}

// Withdraw calls circles.v1.CircleService.Withdraw.
func (c *CircleServiceClient) Withdraw(ctx context.Context, req *connect.Request[WithdrawRequest]) (*connect.Response[OperationResponse], error) {
	return c.withdraw.CallUnary(ctx, req)
}

// ClaimPot calls circles.v1.CircleService.ClaimPot.
func (c *CircleServiceClient) ClaimPot(ctx context.Context, req *connect.Request[ClaimPotRequest]) (*connect.Response[OperationResponse], error) {
	return c.claimPot.CallUnary(ctx, req)
}

// ClaimYield calls circles.v1.CircleService.ClaimYield.
func (c *CircleServiceClient) ClaimYield(ctx context.Context, req *connect.Request[ClaimYieldRequest]) (*connect.Response[OperationResponse], error) {
	return c.claimYield.CallUnary(ctx, req)
}

// LeaveCircle calls circles.v1.CircleService.LeaveCircle.
func (c *CircleServiceClient) LeaveCircle(ctx context.Context, req *connect.Request[LeaveCircleRequest]) (*connect.Response[OperationResponse], error) {
	return c.leaveCircle.CallUnary(ctx, req)
}

// RequestEmergencyWithdraw calls circles.v1.CircleService.RequestEmergencyWithdraw.
func (c *CircleServiceClient) RequestEmergencyWithdraw(ctx context.Context, req *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[EmergencyWithdrawResponse], error) {
	return c.requestEmergencyWithdraw.CallUnary(ctx, req)
}

// ApproveEmergencyWithdraw calls circles.v1.CircleService.ApproveEmergencyWithdraw.
func (c *CircleServiceClient) ApproveEmergencyWithdraw(ctx context.Context, req *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[EmergencyWithdrawResponse], error) {
	return c.approveEmergencyWithdraw.CallUnary(ctx, req)
}

// CancelEmergencyWithdraw calls circles.v1.CircleService.CancelEmergencyWithdraw.
func (c *CircleServiceClient) CancelEmergencyWithdraw(ctx context.Context, req *connect.Request[EmergencyWithdrawRequest]) (*connect.Response[CancelEmergencyWithdrawResponse], error) {
	return c.cancelEmergencyWithdraw.CallUnary(ctx, req)
}

// ListEffects calls circles.v1.CircleService.ListEffects.
func (c *CircleServiceClient) ListEffects(ctx context.Context, req *connect.Request[ListEffectsRequest]) (*connect.Response[ListEffectsResponse], error) {
	return c.listEffects.CallUnary(ctx, req)
}
