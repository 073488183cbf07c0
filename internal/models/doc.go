// Package models defines the core domain models for Yield Circles.
//
// # Models
//
//   - Circle: a rotating savings group and its round state
//   - Participant: one identity's membership record within a circle
//   - EmergencyRequest: the open supermajority-gated withdrawal, if any
//   - Effect: a value movement the settlement layer must execute
//
// # Design Principles
//
// 1. **Aggregate per circle**: a Circle owns its Participants and its open
// EmergencyRequest; all mutation goes through internal/ledger.
// 2. **Integer amounts**: balances are int64 counts of the smallest settlement unit.
// 3. **Join order is rotation order**: Participants is kept sorted by JoinSeq.
// 4. **Avoid circular references**: use ID strings instead of pointers for relationships.
package models
