package events

import (
	"context"
	"fmt"

	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/pkg/logging"
)

// LeadEvents turns lead lifecycle callbacks into published events.
type LeadEvents struct {
	publisher Publisher
	logger    *logging.Logger
}

func NewLeadEvents(publisher Publisher, logger *logging.Logger) *LeadEvents {
	if publisher == nil {
		panic("events: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadEvents{publisher: publisher, logger: logger}
}

func (e *LeadEvents) Name() string { return "lead_events" }

func (e *LeadEvents) LeadCreated(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	return e.publish(ctx, lead.ID, LeadCreatedV1{
		LeadID:     lead.ID,
		Name:       lead.Name,
		Phone:      lead.Phone,
		Message:    lead.Message,
		Source:     lead.Source,
		Status:     string(lead.Status),
		OccurredAt: lead.CreatedAt.UTC(),
	})
}

func (e *LeadEvents) StatusChanged(ctx context.Context, id string, status leads.Status) error {
	return e.publish(ctx, id, LeadStatusChangedV1{
		LeadID:     id,
		Status:     string(status),
		OccurredAt: nowFunc().UTC(),
	})
}

func (e *LeadEvents) publish(ctx context.Context, leadID string, evt CanonicalEvent) error {
	env, err := NewEnvelope("lead:"+leadID, evt)
	if err != nil {
		return err
	}
	if err := e.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("events: publish %s: %w", env.EventType, err)
	}
	e.logger.Debug("lead event published", "event_type", env.EventType, "event_id", env.EventID, "lead_id", leadID)
	return nil
}

var (
	_ leads.FollowUp       = (*LeadEvents)(nil)
	_ leads.StatusObserver = (*LeadEvents)(nil)
)
