package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is matched by every ValidationError.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBudgetExceeded is returned once a run exhausts its worker call budget.
	ErrBudgetExceeded = errors.New("worker call budget exceeded")
	// ErrMissingOutput is returned when a worker produced no structured result.
	ErrMissingOutput = errors.New("worker returned no output")
)

// ValidationError describes a malformed request. It is raised before any
// event is emitted.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidRequest) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

// UserMessage implements the user-facing contract consumed by transports.
func (e *ValidationError) UserMessage() string { return "Invalid request payload." }

// WorkerFailure reports that a required worker of a phase did not produce a
// usable result. It aborts the run.
type WorkerFailure struct {
	Phase Phase
	Label string
	Err   error
}

// Error implements the error interface for WorkerFailure.
func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("%s phase: worker %s failed: %v", e.Phase, e.Label, e.Err)
}

// Unwrap returns the underlying provider or decoding error.
func (e *WorkerFailure) Unwrap() error { return e.Err }

// UserMessage is the human-readable text carried by the terminal error event.
func (e *WorkerFailure) UserMessage() string {
	switch e.Phase {
	case PhaseBaseline:
		return "Baseline agent did not return output."
	case PhasePositions:
		return "One or more juror positions missing."
	case PhaseCritique:
		return "One or more critiques missing."
	case PhaseRebuttal:
		return "One or more rebuttals missing."
	case PhaseRevision:
		return "One or more revisions missing."
	case PhaseVerdict:
		return "Verdict missing."
	default:
		return "Debate failed."
	}
}

// Retryable reports whether a failed run may succeed when retried.
func (e *WorkerFailure) Retryable() bool { return !errors.Is(e.Err, ErrBudgetExceeded) }

// IsRetryable reports whether err marks a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// IsUserFacing reports whether err carries a message safe to show to end users.
func IsUserFacing(err error) bool {
	var u interface{ UserMessage() string }
	return errors.As(err, &u)
}

// UserMessage returns the user-facing text of err, or fallback when err does
// not carry one.
func UserMessage(err error, fallback string) string {
	var u interface{ UserMessage() string }
	if errors.As(err, &u) {
		return u.UserMessage()
	}
	return fallback
}
