package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrReferenceDataUnavailable blocks forward navigation until catalogs load
	ErrReferenceDataUnavailable = errors.New("reference data unavailable")
	// ErrStepBlocked is returned when a navigation guard refuses to leave a step
	ErrStepBlocked = errors.New("step blocked")
	// ErrSubmissionInFlight rejects a second submit while one is running
	ErrSubmissionInFlight = errors.New("submission already in progress")
	// ErrSubmitted rejects actions on a wizard that already reached its terminal state
	ErrSubmitted = errors.New("enrollment already submitted")
	// ErrDuplicateRecord is returned by stores when an identifier is already enrolled
	ErrDuplicateRecord = errors.New("duplicate enrollment record")
)

// DataError means the reference catalogs failed to load or are stale
type DataError struct {
	Source string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("reference data %s: %v", e.Source, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// Is lets callers match any DataError against ErrReferenceDataUnavailable
func (e *DataError) Is(target error) bool {
	return target == ErrReferenceDataUnavailable
}

// ValidationError carries field or cross-field rule violations for one step
type ValidationError struct {
	Step     string
	Messages []string
}

func (e *ValidationError) Error() string {
	if e.Step == "" {
		return "validation failed: " + strings.Join(e.Messages, "; ")
	}
	return fmt.Sprintf("validation failed on step %s: %s", e.Step, strings.Join(e.Messages, "; "))
}

// CapExceededError reports a discount combination above the track CAP
type CapExceededError struct {
	Utilized decimal.Decimal
	Maximum  decimal.Decimal
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("CAP excedido: %s%% de %s%% utilizado", e.Utilized.String(), e.Maximum.String())
}

// DuplicateIdentifierError is raised when the uniqueness oracle already knows the identifier
type DuplicateIdentifierError struct {
	Field      string
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s %s já possui matrícula cadastrada", e.Field, e.Identifier)
}

// SubmissionError wraps a persistence failure that happened after local validation passed
type SubmissionError struct {
	TransactionToken string
	Err              error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission %s failed: %v", e.TransactionToken, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
