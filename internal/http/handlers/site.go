package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/digigrow/agency-site/internal/chatlink"
	"github.com/digigrow/agency-site/pkg/logging"
)

// ContactInfo is the agency contact block rendered by the public site.
type ContactInfo struct {
	DisplayPhone string `json:"display_phone"`
	ChatPhone    string `json:"chat_phone"`
	ChatURL      string `json:"chat_url"`
	Email        string `json:"email,omitempty"`
}

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// SiteHandler serves health checks and public site metadata.
type SiteHandler struct {
	contact ContactInfo
	checks  map[string]Pinger
	logger  *logging.Logger
}

// NewSiteHandler builds the handler. The display phone is shown to visitors;
// chat links always use the number configured on the builder.
func NewSiteHandler(displayPhone, email string, links *chatlink.Builder, logger *logging.Logger) *SiteHandler {
	if logger == nil {
		logger = logging.Default()
	}
	contact := ContactInfo{DisplayPhone: displayPhone, Email: email}
	if links != nil {
		contact.ChatPhone = links.Phone()
		contact.ChatURL = links.ContactURL()
	}
	return &SiteHandler{contact: contact, checks: map[string]Pinger{}, logger: logger}
}

// WithCheck registers a dependency pinged by Ready.
func (h *SiteHandler) WithCheck(name string, ping Pinger) *SiteHandler {
	if ping != nil {
		h.checks[name] = ping
	}
	return h
}

// Health handles GET /health
func (h *SiteHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready by pinging every registered dependency.
func (h *SiteHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
}

// Contact handles GET /api/site/contact
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, h.contact)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
