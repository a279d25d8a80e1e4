// Package transform describes composable edits to a quote request: adding or
// removing discounts, switching track, changing the family situation. The
// compare command and the break-even solver build their variants from them.
package transform

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// QuoteTransform defines the interface for all quote request transformations.
type QuoteTransform interface {
	// Apply returns a modified copy of base. It never mutates base.
	Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error)

	// Name returns a short identifier for this transform (e.g., "add_discount").
	Name() string

	// Description returns a human-readable description of what this transform does.
	Description() string

	// Validate checks the transform parameters against base and, when refs is
	// non-nil, against the reference catalogs.
	Validate(base calculation.QuoteRequest, refs *domain.ReferenceData) error
}

// ApplyTransforms applies transforms in order, each receiving the output of the previous one.
func ApplyTransforms(base calculation.QuoteRequest, refs *domain.ReferenceData, transforms []QuoteTransform) (calculation.QuoteRequest, error) {
	current := Clone(base)

	for i, transform := range transforms {
		if transform == nil {
			return calculation.QuoteRequest{}, fmt.Errorf("transform at index %d is nil", i)
		}

		if err := transform.Validate(current, refs); err != nil {
			return calculation.QuoteRequest{}, fmt.Errorf("transform %s validation failed: %w", transform.Name(), err)
		}

		next, err := transform.Apply(current)
		if err != nil {
			return calculation.QuoteRequest{}, fmt.Errorf("transform %s failed: %w", transform.Name(), err)
		}

		current = next
	}

	return current, nil
}

// Clone copies a request so the discount slice is not shared
func Clone(req calculation.QuoteRequest) calculation.QuoteRequest {
	out := req
	if req.Discounts != nil {
		out.Discounts = make([]domain.SelectedDiscount, len(req.Discounts))
		copy(out.Discounts, req.Discounts)
	}
	return out
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError creates a new TransformError.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}
