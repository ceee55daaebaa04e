package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digigrow/agency-site/cmd/mainconfig"
	"github.com/digigrow/agency-site/internal/api/router"
	"github.com/digigrow/agency-site/internal/app/bootstrap"
	"github.com/digigrow/agency-site/internal/chatlink"
	appconfig "github.com/digigrow/agency-site/internal/config"
	"github.com/digigrow/agency-site/internal/events"
	"github.com/digigrow/agency-site/internal/http/handlers"
	httpmiddleware "github.com/digigrow/agency-site/internal/http/middleware"
	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/internal/notify"
	"github.com/digigrow/agency-site/internal/observability/metrics"
	"github.com/digigrow/agency-site/pkg/logging"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agency-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	reg, metricsHandler := setupMetrics()
	app := appDeps{
		store:     bootstrap.BuildLeadStore(pool, logger),
		guard:     bootstrap.BuildSubmitGuard(redisClient, cfg),
		sender:    bootstrap.BuildEmailSender(cfg, awsCfg, logger),
		publisher: bootstrap.BuildEventPublisher(cfg, awsCfg, logger),
		metrics:   metrics.NewLeadMetrics(reg),
		gatherer:  reg,
	}
	site := handlers.NewSiteHandler(cfg.AgencyDisplayPhone, cfg.AgencyEmail, chatlink.NewBuilder(cfg.AgencyChatPhone), logger)
	if pool != nil {
		site.WithCheck("postgres", pool.Ping)
	}
	if redisClient != nil {
		site.WithCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.LeadRatePerSec, cfg.LeadRateBurst)
	go sweepLimiter(ctx, limiter, 5*time.Minute)

	handler, submitter := newHandler(cfg, logger, app, site, metricsHandler, limiter)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := submitter.Drain(shutdownCtx); err != nil {
		logger.Warn("lead follow-ups still running at shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

type appDeps struct {
	store     leads.Store
	guard     leads.InFlightGuard
	sender    notify.EmailSender
	publisher events.Publisher
	metrics   *metrics.LeadMetrics
	gatherer  prometheus.Gatherer
}

// newHandler wires the lead flows into the HTTP router. The submitter is
// returned so shutdown can wait for its background follow-ups.
func newHandler(cfg *appconfig.Config, logger *logging.Logger, deps appDeps, site *handlers.SiteHandler, metricsHandler http.Handler, limiter *httpmiddleware.RateLimiter) (http.Handler, *leads.Submitter) {
	followUps, observers := bootstrap.BuildLeadHooks(cfg, deps.sender, deps.publisher, logger)

	submitter := leads.NewSubmitter(deps.store, deps.guard, logger).
		WithTimeout(cfg.StoreTimeout).
		WithMetrics(deps.metrics).
		WithFollowUps(followUps...)
	manager := leads.NewManager(deps.store, logger).
		WithTimeout(cfg.StoreTimeout).
		WithMetrics(deps.metrics).
		WithObservers(observers...)

	leadsHandler := leads.NewHandler(submitter, manager, chatlink.NewBuilder(cfg.AgencyChatPhone), logger).
		WithGatherer(deps.gatherer)

	return router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		SiteHandler:        site,
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		AdminLoginURL:      cfg.AdminLoginURL,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LeadLimiter:        limiter,
	}), submitter
}

// setupMetrics returns a dedicated registry with Go runtime collectors and
// the handler that exposes it.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func sweepLimiter(ctx context.Context, limiter *httpmiddleware.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
