package ledger

import "github.com/mmynk/yieldcircles/internal/models"

// RegisterIfAbsent returns the participant's record, creating a zero-balance
// one at the end of the join order if none exists. Existing balances are
// never touched.
func RegisterIfAbsent(c *models.Circle, participantID string) *models.Participant {
	if p := c.Participant(participantID); p != nil {
		return p
	}
	seq := 1
	if n := len(c.Participants); n > 0 {
		seq = c.Participants[n-1].JoinSeq + 1
	}
	p := &models.Participant{ID: participantID, JoinSeq: seq}
	c.Participants = append(c.Participants, p)
	return p
}

// SetVerified overwrites the participant's verification status. A false
// result is recorded as well; it revokes an earlier success.
func SetVerified(c *models.Circle, participantID string, verified bool) {
	RegisterIfAbsent(c, participantID).Verified = verified
}

// IsVerified reports whether the participant holds a verified credential
// for this circle.
func IsVerified(c *models.Circle, participantID string) bool {
	p := c.Participant(participantID)
	return p != nil && p.Verified
}
