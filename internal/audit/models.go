package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an audited operation.
type Action string

const (
	ActionCompanyRegistered       Action = "company.registered"
	ActionBranchRegistered        Action = "company.branch_registered"
	ActionCompanyRegistrationFail Action = "company.registration_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Subject is the CNPJ the action concerns, in short form.
	Subject   string `json:"subject"`
	RequestID string `json:"request_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
