package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/yieldcircles/internal/engine"
	"github.com/mmynk/yieldcircles/internal/identity"
	"github.com/mmynk/yieldcircles/internal/ledger"
	"github.com/mmynk/yieldcircles/internal/middleware"
	"github.com/mmynk/yieldcircles/pkg/api"
)

var errAuthRequired = errors.New("authentication required")

// CircleService implements the Connect CircleService on top of the engine.
// The acting participant is always the authenticated caller.
type CircleService struct {
	engine *engine.Engine
}

var _ api.CircleServiceHandler = (*CircleService)(nil)

// NewCircleService creates a new CircleService backed by e.
func NewCircleService(e *engine.Engine) *CircleService {
	return &CircleService{engine: e}
}

// CreateCircle creates a new circle in the forming state.
func (s *CircleService) CreateCircle(ctx context.Context, req *connect.Request[api.CreateCircleRequest]) (*connect.Response[api.CreateCircleResponse], error) {
	slog.Info("CreateCircle request received",
		"name", req.Msg.Name,
		"target_participants", req.Msg.TargetParticipantCount,
		"participant_id", middleware.GetParticipantID(ctx),
	)

	circle, err := s.engine.CreateCircle(ctx, req.Msg.Name, int(req.Msg.TargetParticipantCount))
	if err != nil {
		return nil, toConnectError("CreateCircle", err)
	}

	return connect.NewResponse(&api.CreateCircleResponse{
		Circle: s.circleToAPI(circle),
	}), nil
}

// GetCircle retrieves a circle with its participants.
func (s *CircleService) GetCircle(ctx context.Context, req *connect.Request[api.GetCircleRequest]) (*connect.Response[api.GetCircleResponse], error) {
	slog.Debug("GetCircle request received", "circle_id", req.Msg.CircleID)

	circle, err := s.engine.GetCircle(ctx, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError("GetCircle", err)
	}

	return connect.NewResponse(&api.GetCircleResponse{
		Circle: s.circleToAPI(circle),
	}), nil
}

// ListCircles retrieves all circles without their participants.
func (s *CircleService) ListCircles(ctx context.Context, req *connect.Request[api.ListCirclesRequest]) (*connect.Response[api.ListCirclesResponse], error) {
	circles, err := s.engine.ListCircles(ctx)
	if err != nil {
		return nil, toConnectError("ListCircles", err)
	}

	out := make([]*api.Circle, len(circles))
	for i, circle := range circles {
		out[i] = s.circleToAPI(circle)
	}

	slog.Debug("ListCircles successful", "count", len(out))

	return connect.NewResponse(&api.ListCirclesResponse{Circles: out}), nil
}

// Verify checks the caller's proof of personhood for a circle. A rejected
// proof is a normal response with Verified false.
func (s *CircleService) Verify(ctx context.Context, req *connect.Request[api.VerifyRequest]) (*connect.Response[api.VerifyResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Verify request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	if req.Msg.Proof == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("proof is required"))
	}

	result, err := s.engine.Verify(ctx, req.Msg.CircleID, participantID, identity.Proof{
		MerkleRoot:        req.Msg.Proof.MerkleRoot,
		NullifierHash:     req.Msg.Proof.NullifierHash,
		Proof:             req.Msg.Proof.Proof,
		VerificationLevel: req.Msg.Proof.VerificationLevel,
	})
	if err != nil {
		return nil, toConnectError("Verify", err)
	}

	circle, err := s.engine.GetCircle(ctx, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError("Verify", err)
	}

	return connect.NewResponse(&api.VerifyResponse{
		Verified: result.Verified,
		Detail:   result.Detail,
		Circle:   s.circleToAPI(circle),
	}), nil
}

// Deposit pulls funds from the caller into the circle.
func (s *CircleService) Deposit(ctx context.Context, req *connect.Request[api.DepositRequest]) (*connect.Response[api.OperationResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Deposit request received",
		"circle_id", req.Msg.CircleID,
		"participant_id", participantID,
		"amount", int64(req.Msg.Amount),
	)

	receipt, err := s.engine.Deposit(ctx, req.Msg.CircleID, participantID, int64(req.Msg.Amount))
	if err != nil {
		return nil, toConnectError("Deposit", err)
	}
	return connect.NewResponse(s.operationToAPI(receipt)), nil
}

// Withdraw pays part of the caller's contribution back, minus the exit fee.
func (s *CircleService) Withdraw(ctx context.Context, req *connect.Request[api.WithdrawRequest]) (*connect.Response[api.OperationResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Withdraw request received",
		"circle_id", req.Msg.CircleID,
		"participant_id", participantID,
		"amount", int64(req.Msg.Amount),
	)

	receipt, err := s.engine.Withdraw(ctx, req.Msg.CircleID, participantID, int64(req.Msg.Amount))
	if err != nil {
		return nil, toConnectError("Withdraw", err)
	}
	return connect.NewResponse(s.operationToAPI(receipt)), nil
}

// ClaimPot pays the pot to the caller if they are the current recipient.
func (s *CircleService) ClaimPot(ctx context.Context, req *connect.Request[api.ClaimPotRequest]) (*connect.Response[api.OperationResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ClaimPot request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	receipt, err := s.engine.ClaimPot(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("ClaimPot", err)
	}
	return connect.NewResponse(s.operationToAPI(receipt)), nil
}

// ClaimYield pays the caller's accumulated yield.
func (s *CircleService) ClaimYield(ctx context.Context, req *connect.Request[api.ClaimYieldRequest]) (*connect.Response[api.OperationResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ClaimYield request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	receipt, err := s.engine.ClaimYield(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("ClaimYield", err)
	}
	return connect.NewResponse(s.operationToAPI(receipt)), nil
}

// LeaveCircle pays out the caller's whole contribution, minus the exit fee.
func (s *CircleService) LeaveCircle(ctx context.Context, req *connect.Request[api.LeaveCircleRequest]) (*connect.Response[api.OperationResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("LeaveCircle request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	receipt, err := s.engine.LeaveCircle(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("LeaveCircle", err)
	}
	return connect.NewResponse(s.operationToAPI(receipt)), nil
}

// RequestEmergencyWithdraw opens an emergency request for the caller.
func (s *CircleService) RequestEmergencyWithdraw(ctx context.Context, req *connect.Request[api.EmergencyWithdrawRequest]) (*connect.Response[api.EmergencyWithdrawResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RequestEmergencyWithdraw request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	receipt, err := s.engine.RequestEmergencyWithdraw(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("RequestEmergencyWithdraw", err)
	}
	return connect.NewResponse(s.emergencyToAPI(receipt)), nil
}

// ApproveEmergencyWithdraw adds the caller's approval to the open request.
func (s *CircleService) ApproveEmergencyWithdraw(ctx context.Context, req *connect.Request[api.EmergencyWithdrawRequest]) (*connect.Response[api.EmergencyWithdrawResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ApproveEmergencyWithdraw request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	receipt, err := s.engine.ApproveEmergencyWithdraw(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("ApproveEmergencyWithdraw", err)
	}
	if receipt.Executed {
		slog.Info("Emergency withdrawal executed",
			"circle_id", req.Msg.CircleID,
			"requester_id", receipt.RequesterID,
			"approvals", receipt.Approvals,
		)
	}
	return connect.NewResponse(s.emergencyToAPI(receipt)), nil
}

// CancelEmergencyWithdraw abandons the caller's open request.
func (s *CircleService) CancelEmergencyWithdraw(ctx context.Context, req *connect.Request[api.EmergencyWithdrawRequest]) (*connect.Response[api.CancelEmergencyWithdrawResponse], error) {
	participantID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CancelEmergencyWithdraw request received", "circle_id", req.Msg.CircleID, "participant_id", participantID)

	circle, err := s.engine.CancelEmergencyWithdraw(ctx, req.Msg.CircleID, participantID)
	if err != nil {
		return nil, toConnectError("CancelEmergencyWithdraw", err)
	}
	return connect.NewResponse(&api.CancelEmergencyWithdrawResponse{
		Circle: s.circleToAPI(circle),
	}), nil
}

// ListEffects returns the circle's settlement journal, newest first.
func (s *CircleService) ListEffects(ctx context.Context, req *connect.Request[api.ListEffectsRequest]) (*connect.Response[api.ListEffectsResponse], error) {
	effects, err := s.engine.ListEffects(ctx, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError("ListEffects", err)
	}

	out := make([]*api.Effect, len(effects))
	for i, effect := range effects {
		out[i] = effectToAPI(effect)
	}
	return connect.NewResponse(&api.ListEffectsResponse{Effects: out}), nil
}

func caller(ctx context.Context) (string, error) {
	participantID := middleware.GetParticipantID(ctx)
	if participantID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	return participantID, nil
}

// toConnectError maps engine errors onto Connect codes.
func toConnectError(op string, err error) error {
	var code connect.Code
	switch ledger.ClassOf(err) {
	case ledger.ClassInvalidInput:
		code = connect.CodeInvalidArgument
	case ledger.ClassNotPermitted:
		code = connect.CodeFailedPrecondition
	case ledger.ClassNotFound:
		code = connect.CodeNotFound
	case ledger.ClassExternal:
		code = connect.CodeUnavailable
	default:
		switch {
		case errors.Is(err, context.Canceled):
			code = connect.CodeCanceled
		case errors.Is(err, context.DeadlineExceeded):
			code = connect.CodeDeadlineExceeded
		default:
			slog.Error(op+" failed", "error", err)
			code = connect.CodeInternal
		}
	}
	return connect.NewError(code, err)
}
