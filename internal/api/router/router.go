package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digigrow/agency-site/internal/http/handlers"
	httpmiddleware "github.com/digigrow/agency-site/internal/http/middleware"
	"github.com/digigrow/agency-site/internal/leads"
	"github.com/digigrow/agency-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	SiteHandler        *handlers.SiteHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	AdminLoginURL      string
	CORSAllowedOrigins []string

	// LeadLimiter throttles public submissions per client IP (optional).
	LeadLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	site := cfg.SiteHandler
	if site == nil {
		site = handlers.NewSiteHandler("", "", nil, cfg.Logger)
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", site.Health)
		public.Get("/ready", site.Ready)
		public.Get("/api/site/contact", site.Contact)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.LeadsHandler != nil {
			submit := public.With()
			if cfg.LeadLimiter != nil {
				submit = public.With(httpmiddleware.RateLimit(cfg.LeadLimiter))
			}
			submit.Post("/api/leads", cfg.LeadsHandler.SubmitLead)
		}
	})

	// Admin routes. The session check runs before any lead data is read.
	if cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminSession(cfg.AdminAuthSecret, cfg.AdminLoginURL))
			admin.Route("/leads", func(r chi.Router) {
				r.Get("/", cfg.LeadsHandler.ListLeads)
				r.Get("/stats", cfg.LeadsHandler.GetStats)
				r.Get("/pipeline", cfg.LeadsHandler.GetPipeline)
				r.Patch("/{leadID}/status", cfg.LeadsHandler.UpdateStatus)
				r.Patch("/{leadID}/notes", cfg.LeadsHandler.UpdateNotes)
			})
		})
	}

	return r
}
