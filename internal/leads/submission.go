package leads

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/digigrow/agency-site/internal/observability/metrics"
	"github.com/digigrow/agency-site/pkg/logging"
)

// SubmissionState is a step of the public submission lifecycle:
// idle -> submitting -> success|failed -> idle.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateSuccess    SubmissionState = "success"
	StateFailed     SubmissionState = "failed"
)

// GenericSubmitError is shown to public submitters when the store fails.
const GenericSubmitError = "Failed to submit. Please try again."

const defaultStoreTimeout = 10 * time.Second

// FollowUp runs after a lead has been persisted. Failures are logged and
// never change the submission outcome.
type FollowUp interface {
	Name() string
	LeadCreated(ctx context.Context, lead *Lead) error
}

// FailureReason classifies why a submission ended in failed.
type FailureReason string

const (
	FailureNone       FailureReason = ""
	FailureValidation FailureReason = "validation"
	FailureStore      FailureReason = "store"
)

// SubmissionResult is the terminal state of one submission.
type SubmissionResult struct {
	State SubmissionState
	Lead  *Lead
	// Reason is set when State is failed.
	Reason FailureReason
	// Error is safe to show to the submitter.
	Error string
	// ResetForm tells the caller to clear the form; only set on success.
	ResetForm bool
}

// Submitter orchestrates validate -> persist -> follow-ups for the contact form.
type Submitter struct {
	store     Store
	guard     InFlightGuard
	logger    *logging.Logger
	metrics   *metrics.LeadMetrics
	followUps []FollowUp
	timeout   time.Duration

	pending sync.WaitGroup
}

func NewSubmitter(store Store, guard InFlightGuard, logger *logging.Logger) *Submitter {
	if store == nil {
		panic("leads: store required")
	}
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{
		store:   store,
		guard:   guard,
		logger:  logger,
		timeout: defaultStoreTimeout,
	}
}

// WithTimeout bounds the store insert and each follow-up.
func (s *Submitter) WithTimeout(timeout time.Duration) *Submitter {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func (s *Submitter) WithMetrics(m *metrics.LeadMetrics) *Submitter {
	s.metrics = m
	return s
}

// WithFollowUps registers hooks run after successful persistence, in order.
func (s *Submitter) WithFollowUps(hooks ...FollowUp) *Submitter {
	for _, h := range hooks {
		if h != nil {
			s.followUps = append(s.followUps, h)
		}
	}
	return s
}

// Submit runs one submission for the submitter identified by key. The only
// error returned is ErrSubmissionInFlight; every other path ends in a result
// whose State is success or failed. Follow-ups are started in the background
// once the lead is stored, so Submit returns as soon as persistence is confirmed.
func (s *Submitter) Submit(ctx context.Context, key string, req SubmitRequest) (*SubmissionResult, error) {
	token, acquired, err := s.guard.Acquire(ctx, key)
	switch {
	case err != nil:
		// Fail open: a guard outage must not block lead capture.
		s.logger.Warn("submit guard unavailable", "error", err)
	case !acquired:
		s.metrics.ObserveSubmission("in_flight")
		return nil, ErrSubmissionInFlight
	default:
		defer func() {
			if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
				s.logger.Warn("failed to release submit guard", "error", err)
			}
		}()
	}

	normalized, err := Validate(req)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{Message: err.Error()}
		}
		s.metrics.ObserveSubmission("validation_failed")
		s.logger.Info("lead submission rejected", "field", verr.Field, "reason", verr.Message)
		return &SubmissionResult{State: StateFailed, Reason: FailureValidation, Error: verr.Message}, nil
	}

	lead, err := s.insert(ctx, normalized)
	if err != nil {
		s.metrics.ObserveSubmission("store_failed")
		s.logger.Error("error submitting lead", "error", err)
		return &SubmissionResult{State: StateFailed, Reason: FailureStore, Error: GenericSubmitError}, nil
	}

	s.metrics.ObserveSubmission("success")
	s.logger.Info("lead created", "id", lead.ID, "source", lead.Source)
	s.startFollowUps(ctx, lead.clone())

	return &SubmissionResult{State: StateSuccess, Lead: lead, ResetForm: true}, nil
}

// Drain waits for background follow-ups to finish or for ctx to end.
func (s *Submitter) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Submitter) insert(ctx context.Context, in NewLead) (*Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	lead, err := s.store.Insert(ctx, in)
	s.metrics.ObserveStoreLatency("insert", time.Since(start).Seconds())
	if err != nil {
		return nil, storeErr("insert", err)
	}
	return lead, nil
}

func (s *Submitter) startFollowUps(ctx context.Context, lead *Lead) {
	if len(s.followUps) == 0 {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.runFollowUps(context.WithoutCancel(ctx), lead)
	}()
}

func (s *Submitter) runFollowUps(ctx context.Context, lead *Lead) {
	for _, hook := range s.followUps {
		hookCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := hook.LeadCreated(hookCtx, lead)
		cancel()
		if err != nil {
			s.metrics.ObserveFollowUpFailure(hook.Name())
			s.logger.Error("lead follow-up failed", "follow_up", hook.Name(), "lead_id", lead.ID, "error", err)
		}
	}
}
