package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/digigrow/agency-site/internal/config"
	"github.com/digigrow/agency-site/internal/events"
	"github.com/digigrow/agency-site/internal/http/handlers"
	httpmiddleware "github.com/digigrow/agency-site/internal/http/middleware"
	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/internal/notify"
	"github.com/digigrow/agency-site/internal/observability/metrics"
	"github.com/digigrow/agency-site/pkg/logging"
)

type capturePublisher struct {
	types []string
}

func (c *capturePublisher) Publish(_ context.Context, env events.Envelope) error {
	c.types = append(c.types, env.EventType)
	return nil
}

func TestSetupMetricsExposesRuntimeAndLeadMetrics(t *testing.T) {
	reg, handler := setupMetrics()
	if reg == nil || handler == nil {
		t.Fatalf("expected non-nil registry and handler")
	}
	metrics.NewLeadMetrics(reg).ObserveSubmission("success")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "digigrow_leads_submissions_total") || !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected lead and runtime metrics to be exported")
	}
}

func TestNewHandlerRunsFollowUps(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{
		StoreTimeout:    time.Second,
		AdminJWTSecret:  "secret",
		AgencyChatPhone: "917276692134",
		LeadAlertEmail:  "team@digigrow.in",
	}
	reg, metricsHandler := setupMetrics()
	sender := notify.NewStubEmailSender(logger)
	publisher := &capturePublisher{}
	deps := appDeps{
		store:     leads.NewInMemoryRepository(),
		guard:     leads.NewMemoryGuard(),
		sender:    sender,
		publisher: publisher,
		metrics:   metrics.NewLeadMetrics(reg),
	}
	site := handlers.NewSiteHandler("+91 73850 66631", "", nil, logger)
	h, submitter := newHandler(cfg, logger, deps, site, metricsHandler, httpmiddleware.NewRateLimiter(10, 10))

	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"name":"Asha","phone":"9876543210"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "https://wa.me/917276692134?text=") {
		t.Fatalf("expected chat url in response, got %s", rr.Body.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := submitter.Drain(ctx); err != nil {
		t.Fatalf("drain follow-ups: %v", err)
	}
	if len(sender.Sent()) != 1 {
		t.Fatalf("expected lead alert email, got %d", len(sender.Sent()))
	}
	if len(publisher.types) != 1 || publisher.types[0] != events.TypeLeadCreated {
		t.Fatalf("expected lead created event, got %v", publisher.types)
	}
}

func TestSweepLimiterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepLimiter(ctx, httpmiddleware.NewRateLimiter(1, 1), time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
