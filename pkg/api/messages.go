package api

// Circle is the externally visible state of a circle.
type Circle struct {
	ID                        string         `json:"id"`
	Name                      string         `json:"name"`
	State                     string         `json:"state"`
	TargetParticipantCount    int32          `json:"targetParticipantCount"`
	RoundNumber               int32          `json:"roundNumber"`
	Pot                       Int64          `json:"pot"`
	YieldPool                 Int64          `json:"yieldPool"`
	CurrentRecipientID        string         `json:"currentRecipientId,omitempty"`
	PendingEmergencyApprovals int32          `json:"pendingEmergencyApprovals"`
	RequiredApprovals         int32          `json:"requiredApprovals"`
	EmergencyRequesterID      string         `json:"emergencyRequesterId,omitempty"`
	Participants              []*Participant `json:"participants,omitempty"`
	CreatedAt                 Int64          `json:"createdAt"`
}

// Participant is a member's standing within a circle.
type Participant struct {
	ID                   string `json:"id"`
	Verified             bool   `json:"verified"`
	Contribution         Int64  `json:"contribution"`
	YieldEarned          Int64  `json:"yieldEarned"`
	TotalDeposited       Int64  `json:"totalDeposited"`
	TimesRecipient       int32  `json:"timesRecipient"`
	HasApprovedEmergency bool   `json:"hasApprovedEmergency"`
	Departed             bool   `json:"departed"`
}

// Effect is a value transfer executed on behalf of a circle.
type Effect struct {
	ID            string `json:"id"`
	CircleID      string `json:"circleId"`
	ParticipantID string `json:"participantId"`
	Kind          string `json:"kind"`
	Direction     string `json:"direction"`
	Amount        Int64  `json:"amount"`
	Fee           Int64  `json:"fee"`
	Status        string `json:"status"`
	CreatedAt     Int64  `json:"createdAt"`
	SettledAt     Int64  `json:"settledAt,omitempty"`
}

// WorldIDProof is a zero-knowledge proof of personhood.
type WorldIDProof struct {
	MerkleRoot        string `json:"merkleRoot"`
	NullifierHash     string `json:"nullifierHash"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verificationLevel"`
}

type CreateCircleRequest struct {
	Name                   string `json:"name"`
	TargetParticipantCount int32  `json:"targetParticipantCount"`
}

type CreateCircleResponse struct {
	Circle *Circle `json:"circle"`
}

type GetCircleRequest struct {
	CircleID string `json:"circleId"`
}

type GetCircleResponse struct {
	Circle *Circle `json:"circle"`
}

type ListCirclesRequest struct{}

type ListCirclesResponse struct {
	Circles []*Circle `json:"circles"`
}

type VerifyRequest struct {
	CircleID string        `json:"circleId"`
	Proof    *WorldIDProof `json:"proof"`
}

type VerifyResponse struct {
	Verified bool    `json:"verified"`
	Detail   string  `json:"detail,omitempty"`
	Circle   *Circle `json:"circle"`
}

type DepositRequest struct {
	CircleID string `json:"circleId"`
	Amount   Int64  `json:"amount"`
}

type WithdrawRequest struct {
	CircleID string `json:"circleId"`
	Amount   Int64  `json:"amount"`
}

type ClaimPotRequest struct {
	CircleID string `json:"circleId"`
}

type ClaimYieldRequest struct {
	CircleID string `json:"circleId"`
}

type LeaveCircleRequest struct {
	CircleID string `json:"circleId"`
}

// OperationResponse is returned by every value-moving operation. Effect is
// nil when the operation moved no value.
type OperationResponse struct {
	Circle *Circle `json:"circle"`
	Effect *Effect `json:"effect,omitempty"`
}

type EmergencyWithdrawRequest struct {
	CircleID string `json:"circleId"`
}

type EmergencyWithdrawResponse struct {
	Circle      *Circle `json:"circle"`
	RequesterID string  `json:"requesterId"`
	Approvals   int32   `json:"approvals"`
	Required    int32   `json:"required"`
	Executed    bool    `json:"executed"`
	Dropped     bool    `json:"dropped,omitempty"`
	Effect      *Effect `json:"effect,omitempty"`
}

type CancelEmergencyWithdrawResponse struct {
	Circle *Circle `json:"circle"`
}

type ListEffectsRequest struct {
	CircleID string `json:"circleId"`
}

type ListEffectsResponse struct {
	Effects []*Effect `json:"effects"`
}
