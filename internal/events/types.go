package events

import "time"

const (
	TypeLeadCreated       = "leads.lead.created.v1"
	TypeLeadStatusChanged = "leads.lead.status_changed.v1"
)

// LeadCreatedV1 is published once a contact-form lead has been stored.
type LeadCreatedV1 struct {
	LeadID     string    `json:"lead_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Message    *string   `json:"message,omitempty"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (LeadCreatedV1) EventType() string { return TypeLeadCreated }

// LeadStatusChangedV1 is published after an admin moves a lead to a new stage.
type LeadStatusChangedV1 struct {
	LeadID     string    `json:"lead_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (LeadStatusChangedV1) EventType() string { return TypeLeadStatusChanged }
