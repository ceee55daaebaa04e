package leads

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/digigrow/agency-site/internal/chatlink"
	"github.com/digigrow/agency-site/internal/observability/metrics"
	"github.com/digigrow/agency-site/pkg/logging"
)

var leadsTracer = otel.Tracer("digigrow.internal.leads")

const maxBodyBytes = 64 << 10

// Handler handles HTTP requests for leads
type Handler struct {
	submitter *Submitter
	manager   *Manager
	links     *chatlink.Builder
	gatherer  prometheus.Gatherer
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(submitter *Submitter, manager *Manager, links *chatlink.Builder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		submitter: submitter,
		manager:   manager,
		links:     links,
		logger:    logger,
	}
}

// WithGatherer sets where pipeline metrics are read from.
func (h *Handler) WithGatherer(g prometheus.Gatherer) *Handler {
	h.gatherer = g
	return h
}

// SubmitResponse is returned by the public submission endpoint.
type SubmitResponse struct {
	State     SubmissionState `json:"state"`
	LeadID    string          `json:"lead_id,omitempty"`
	ChatURL   string          `json:"chat_url,omitempty"`
	ResetForm bool            `json:"reset_form"`
	Error     string          `json:"error,omitempty"`
}

// SubmitLead handles POST /api/leads
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.submit", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		span.RecordError(err)
		h.logger.Warn("failed to decode lead submission", "error", err)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{State: StateFailed, Error: "Invalid request body"})
		return
	}

	result, err := h.submitter.Submit(ctx, submissionKey(r, req.Phone), req)
	if errors.Is(err, ErrSubmissionInFlight) {
		span.SetAttributes(attribute.String("digigrow.lead.state", "in_flight"))
		writeJSON(w, http.StatusConflict, SubmitResponse{State: StateSubmitting, Error: "Your message is already being sent."})
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{State: StateFailed, Error: GenericSubmitError})
		return
	}

	span.SetAttributes(attribute.String("digigrow.lead.state", string(result.State)))
	if result.State != StateSuccess {
		status := http.StatusUnprocessableEntity
		if result.Reason == FailureStore {
			status = http.StatusInternalServerError
			span.SetStatus(codes.Error, "store failed")
		}
		writeJSON(w, status, SubmitResponse{State: result.State, Error: result.Error})
		return
	}

	resp := SubmitResponse{
		State:     result.State,
		LeadID:    result.Lead.ID,
		ResetForm: result.ResetForm,
	}
	if h.links != nil {
		message := ""
		if result.Lead.Message != nil {
			message = *result.Lead.Message
		}
		resp.ChatURL = h.links.LeadURL(result.Lead.Name, message, result.Lead.Phone)
	}
	span.SetAttributes(attribute.String("digigrow.lead.id", result.Lead.ID))
	writeJSON(w, http.StatusCreated, resp)
}

// ListLeadsResponse is the admin dashboard payload.
type ListLeadsResponse struct {
	Leads    []*Lead        `json:"leads"`
	Filter   string         `json:"filter"`
	Stats    Stats          `json:"stats"`
	Statuses []StatusOption `json:"statuses"`
}

// ListLeads handles GET /admin/leads?status=all|new|...
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.admin.list")
	defer span.End()

	filter := strings.TrimSpace(r.URL.Query().Get("status"))
	if filter == "" {
		filter = FilterAll
	}
	// Reject a bad filter before reading any lead data.
	if _, err := FilterLeads(nil, filter); err != nil {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	dashboard, err := h.manager.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	filtered, err := dashboard.FilterBy(filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	span.SetAttributes(attribute.Int("digigrow.leads.count", len(filtered)))
	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:    filtered,
		Filter:   filter,
		Stats:    dashboard.Stats(),
		Statuses: StatusOptions(),
	})
}

// GetStats handles GET /admin/leads/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.admin.stats")
	defer span.End()

	dashboard, err := h.manager.Load(ctx)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Stats())
}

// GetPipeline handles GET /admin/leads/pipeline
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot(h.gatherer))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateNotesRequest struct {
	Notes *string `json:"notes"`
}

// UpdateStatus handles PATCH /admin/leads/{leadID}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.admin.update_status")
	defer span.End()

	leadID, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, found, err := h.manager.SetStatus(ctx, leadID, req.Status)
	var perr *PreconditionError
	switch {
	case errors.As(err, &perr):
		writeError(w, http.StatusBadRequest, "invalid lead status")
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case !found:
		writeError(w, http.StatusNotFound, ErrLeadNotFound.Error())
		return
	}

	h.logger.Info("lead status updated", "lead_id", leadID, "status", status)
	writeJSON(w, http.StatusOK, map[string]string{"id": leadID, "status": string(status)})
}

// UpdateNotes handles PATCH /admin/leads/{leadID}/notes
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.admin.update_notes")
	defer span.End()

	leadID, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	var req updateNotesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Notes == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := h.manager.SetNotes(ctx, leadID, *req.Notes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, ErrLeadNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": leadID, "notes": *req.Notes})
}

func leadIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	leadID := chi.URLParam(r, "leadID")
	if _, err := uuid.Parse(leadID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid leadID")
		return "", false
	}
	return leadID, true
}

// submissionKey identifies a submitter by client address and phone. It is
// hashed so raw phone numbers never appear in guard keys.
func submissionKey(r *http.Request, phone string) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	sum := sha256.Sum256([]byte(host + "|" + strings.TrimSpace(phone)))
	return hex.EncodeToString(sum[:16])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
