package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrLeadNotFound is returned when no lead matches the given id
	ErrLeadNotFound = errors.New("lead not found")

	// ErrSubmissionInFlight is returned when the same submitter already has a submission running
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// ValidationError reports the first violated submission rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a failure of the underlying lead store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("leads: %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PreconditionError flags an integration defect such as an unknown status value.
// It is raised before the store is called.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "leads: precondition failed: " + e.Reason
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
