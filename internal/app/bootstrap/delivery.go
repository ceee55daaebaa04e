package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/digigrow/agency-site/internal/config"
	"github.com/digigrow/agency-site/internal/events"
	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/internal/notify"
	"github.com/digigrow/agency-site/pkg/logging"
)

// BuildEmailSender selects the configured email provider. Missing credentials
// fall back to the log-only stub so lead capture never depends on email.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("email provider: sendgrid")
			return sender
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; using stub")
	case "ses":
		if awsCfg != nil && cfg.SESFromEmail != "" {
			logger.Info("email provider: ses", "region", awsCfg.Region)
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger)
		}
		logger.Warn("EMAIL_PROVIDER=ses but AWS config or SES_FROM_EMAIL missing; using stub")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildEventPublisher returns an SQS publisher, or nil when no queue is configured.
func BuildEventPublisher(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) events.Publisher {
	if cfg.LeadEventsQueueURL == "" || awsCfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("lead events enabled", "queue_url", cfg.LeadEventsQueueURL)
	return events.NewSQSPublisher(sqs.NewFromConfig(*awsCfg), cfg.LeadEventsQueueURL)
}

// BuildLeadHooks assembles what runs after a lead is stored and after its
// status changes. Alerts run before events.
func BuildLeadHooks(cfg *appconfig.Config, sender notify.EmailSender, publisher events.Publisher, logger *logging.Logger) ([]leads.FollowUp, []leads.StatusObserver) {
	var (
		followUps []leads.FollowUp
		observers []leads.StatusObserver
	)
	if alert := notify.NewLeadAlert(sender, cfg.LeadAlertEmail, logger); alert != nil {
		followUps = append(followUps, alert)
	}
	if publisher != nil {
		le := events.NewLeadEvents(publisher, logger)
		followUps = append(followUps, le)
		observers = append(observers, le)
	}
	return followUps, observers
}
