package service

import (
	"github.com/mmynk/yieldcircles/internal/engine"
	"github.com/mmynk/yieldcircles/internal/models"
	"github.com/mmynk/yieldcircles/pkg/api"
)

func (s *CircleService) circleToAPI(c *models.Circle) *api.Circle {
	out := &api.Circle{
		ID:                        c.ID,
		Name:                      c.Name,
		State:                     string(c.State()),
		TargetParticipantCount:    int32(c.TargetParticipantCount),
		RoundNumber:               int32(c.RoundNumber),
		Pot:                       api.Int64(c.Pot),
		YieldPool:                 api.Int64(c.YieldPool),
		CurrentRecipientID:        c.CurrentRecipientID,
		PendingEmergencyApprovals: int32(c.PendingEmergencyApprovals),
		RequiredApprovals:         int32(s.engine.RequiredApprovals(c)),
		CreatedAt:                 api.Int64(c.CreatedAt),
	}
	if c.Emergency != nil {
		out.EmergencyRequesterID = c.Emergency.RequesterID
	}
	if len(c.Participants) > 0 {
		out.Participants = make([]*api.Participant, len(c.Participants))
		for i, p := range c.Participants {
			out.Participants[i] = &api.Participant{
				ID:                   p.ID,
				Verified:             p.Verified,
				Contribution:         api.Int64(p.Contribution),
				YieldEarned:          api.Int64(p.YieldEarned),
				TotalDeposited:       api.Int64(p.TotalDeposited),
				TimesRecipient:       int32(p.TimesRecipient),
				HasApprovedEmergency: p.HasApprovedEmergency,
				Departed:             p.Departed,
			}
		}
	}
	return out
}

func effectToAPI(e *models.Effect) *api.Effect {
	if e == nil {
		return nil
	}
	return &api.Effect{
		ID:            e.ID,
		CircleID:      e.CircleID,
		ParticipantID: e.ParticipantID,
		Kind:          string(e.Kind),
		Direction:     string(e.Direction),
		Amount:        api.Int64(e.Amount),
		Fee:           api.Int64(e.Fee),
		Status:        string(e.Status),
		CreatedAt:     api.Int64(e.CreatedAt),
		SettledAt:     api.Int64(e.SettledAt),
	}
}

func (s *CircleService) operationToAPI(r *engine.Receipt) *api.OperationResponse {
	return &api.OperationResponse{
		Circle: s.circleToAPI(r.Circle),
		Effect: effectToAPI(r.Effect),
	}
}

func (s *CircleService) emergencyToAPI(r *engine.EmergencyReceipt) *api.EmergencyWithdrawResponse {
	return &api.EmergencyWithdrawResponse{
		Circle:      s.circleToAPI(r.Circle),
		RequesterID: r.RequesterID,
		Approvals:   int32(r.Approvals),
		Required:    int32(r.Required),
		Executed:    r.Executed,
		Dropped:     r.Dropped,
		Effect:      effectToAPI(r.Effect),
	}
}
