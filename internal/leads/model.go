package leads

import (
	"fmt"
	"time"
)

// DefaultSource tags leads submitted without an explicit origin.
const DefaultSource = "contact_form"

// Status is a lead's sales-pipeline stage.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// FilterAll selects every lead regardless of status.
const FilterAll = "all"

// Statuses lists the lifecycle stages in dashboard order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost}

// Valid reports whether s is one of the enumerated stages.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	}
	return false
}

// Label is the human readable name shown on the dashboard.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusContacted:
		return "Contacted"
	case StatusQualified:
		return "Qualified"
	case StatusConverted:
		return "Converted"
	case StatusLost:
		return "Lost"
	}
	return string(s)
}

// StatusOption is one entry of the dashboard status picker.
type StatusOption struct {
	Value Status `json:"value"`
	Label string `json:"label"`
}

// StatusOptions lists every stage with its label, in dashboard order.
func StatusOptions() []StatusOption {
	out := make([]StatusOption, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, StatusOption{Value: s, Label: s.Label()})
	}
	return out
}

// ParseStatus converts raw input into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &PreconditionError{Reason: fmt.Sprintf("unknown lead status %q", raw)}
	}
	return s, nil
}

// Lead represents a contact form submission captured for follow-up.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Message   *string   `json:"message"`
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lead) clone() *Lead {
	if l == nil {
		return nil
	}
	cp := *l
	if l.Message != nil {
		msg := *l.Message
		cp.Message = &msg
	}
	if l.Notes != nil {
		notes := *l.Notes
		cp.Notes = &notes
	}
	return &cp
}

// SubmitRequest is the raw public submission. Message and Source are optional.
type SubmitRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Message *string `json:"message,omitempty"`
	Source  *string `json:"source,omitempty"`
}

// NewLead is a validated, normalized submission ready for insertion.
type NewLead struct {
	Name    string
	Phone   string
	Message *string
	Source  string
}
