package breakeven

import (
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// OptimizationGoal defines what outcome to achieve by tuning one discount
type OptimizationGoal string

const (
	// GoalMatchFinal finds the smallest percentage that brings the monthly value to the target
	GoalMatchFinal OptimizationGoal = "match_final"
	// GoalMaxWithinApproval finds the largest percentage that keeps the approval tier at or below MaxApproval
	GoalMaxWithinApproval OptimizationGoal = "max_within_approval"
	// GoalMaxWithinCap finds the largest percentage the track CAP still accepts
	GoalMaxWithinCap OptimizationGoal = "max_within_cap"
)

// Goals lists every supported goal
var Goals = []OptimizationGoal{GoalMatchFinal, GoalMaxWithinApproval, GoalMaxWithinCap}

// OptimizationRequest defines the parameters for a solver run. The discount
// named by DiscountID is added to Base if missing and its percentage searched.
type OptimizationRequest struct {
	Base          calculation.QuoteRequest
	DiscountID    string
	Goal          OptimizationGoal
	TargetFinal   decimal.Decimal     // GoalMatchFinal
	MaxApproval   domain.ApprovalTier // GoalMaxWithinApproval; empty means automatic
	MaxIterations int
}

// OptimizationResult contains the results of a solver run
type OptimizationResult struct {
	Request         OptimizationRequest `json:"-"`
	Goal            OptimizationGoal    `json:"goal"`
	DiscountID      string              `json:"discountId"`
	Success         bool                `json:"success"`
	Iterations      int                 `json:"iterations"`
	ConvergenceInfo string              `json:"convergenceInfo"`

	// Percentage is the solved applied percentage of the discount
	Percentage decimal.Decimal `json:"percentage"`
	Quote      domain.Quote    `json:"quote"`

	BaseQuote         domain.Quote    `json:"baseQuote"`
	FinalDiffFromBase decimal.Decimal `json:"finalDiffFromBase"`
}

// MultiDimensionalResult contains one result per catalog discount for the same goal
type MultiDimensionalResult struct {
	Goal            OptimizationGoal     `json:"goal"`
	Results         []OptimizationResult `json:"results"`
	BestByFinal     *OptimizationResult  `json:"bestByFinal,omitempty"`
	Recommendations []string             `json:"recommendations"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	// Resolution is the smallest percentage step searched, e.g. 0.01
	Resolution    decimal.Decimal
	MaxIterations int
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Resolution:    decimal.RequireFromString("0.01"),
		MaxIterations: 64,
	}
}

// Validate checks the request without consulting the catalogs
func (r *OptimizationRequest) Validate() error {
	if r.DiscountID == "" {
		return &BreakEvenError{Operation: "validate_request", Message: "discount id is required"}
	}
	if r.Base.SeriesID == "" {
		return &BreakEvenError{Operation: "validate_request", Message: "series id is required"}
	}

	switch r.Goal {
	case GoalMatchFinal:
		if r.TargetFinal.IsNegative() {
			return &BreakEvenError{Operation: "validate_request", Message: "target monthly value cannot be negative"}
		}
	case GoalMaxWithinApproval:
		if r.MaxApproval != "" && r.MaxApproval.Rank() < 0 {
			return &BreakEvenError{Operation: "validate_request", Message: "unknown approval tier " + string(r.MaxApproval)}
		}
	case GoalMaxWithinCap:
	default:
		return &BreakEvenError{Operation: "validate_request", Message: "unsupported goal " + string(r.Goal)}
	}
	return nil
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
