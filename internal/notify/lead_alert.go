package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/digigrow/agency-site/internal/chatlink"
	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/pkg/logging"
)

// LeadAlert emails the agency inbox whenever a contact-form lead is stored.
type LeadAlert struct {
	sender    EmailSender
	recipient string
	logger    *logging.Logger
}

// NewLeadAlert returns nil when there is nowhere to send alerts.
func NewLeadAlert(sender EmailSender, recipient string, logger *logging.Logger) *LeadAlert {
	recipient = strings.TrimSpace(recipient)
	if sender == nil || recipient == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadAlert{sender: sender, recipient: recipient, logger: logger}
}

func (a *LeadAlert) Name() string { return "lead_alert_email" }

func (a *LeadAlert) LeadCreated(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	msg := buildLeadAlert(a.recipient, lead)
	if err := a.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: lead alert for %s: %w", lead.ID, err)
	}
	a.logger.Debug("lead alert sent", "lead_id", lead.ID)
	return nil
}

func buildLeadAlert(to string, lead *leads.Lead) EmailMessage {
	message := "(no message)"
	if lead.Message != nil && *lead.Message != "" {
		message = *lead.Message
	}
	replyURL := chatlink.NewBuilder(lead.Phone).ContactURL()

	var text strings.Builder
	fmt.Fprintf(&text, "Name: %s\n", lead.Name)
	fmt.Fprintf(&text, "Phone: %s\n", lead.Phone)
	fmt.Fprintf(&text, "Source: %s\n", lead.Source)
	fmt.Fprintf(&text, "Received: %s\n\n", lead.CreatedAt.Format("02 Jan 2006 15:04 MST"))
	fmt.Fprintf(&text, "%s\n\n", message)
	fmt.Fprintf(&text, "Reply on WhatsApp: %s\n", replyURL)

	var body strings.Builder
	body.WriteString("<h2>New lead</h2><table>")
	fmt.Fprintf(&body, "<tr><td>Name</td><td>%s</td></tr>", html.EscapeString(lead.Name))
	fmt.Fprintf(&body, "<tr><td>Phone</td><td>%s</td></tr>", html.EscapeString(lead.Phone))
	fmt.Fprintf(&body, "<tr><td>Source</td><td>%s</td></tr>", html.EscapeString(lead.Source))
	body.WriteString("</table>")
	fmt.Fprintf(&body, "<p>%s</p>", html.EscapeString(message))
	fmt.Fprintf(&body, `<p><a href="%s">Reply on WhatsApp</a></p>`, html.EscapeString(replyURL))

	return EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("New lead: %s", lead.Name),
		Body:    text.String(),
		HTML:    body.String(),
	}
}

var _ leads.FollowUp = (*LeadAlert)(nil)
