// Package breakeven searches the applied percentage of one discount for the
// value that meets a pricing goal: a target monthly value, the highest
// approval tier the operator may grant, or the track CAP.
package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/transform"
	"github.com/shopspring/decimal"
)

// Solver provides break-even search over a discount percentage
type Solver struct {
	CalcEngine *calculation.CalculationEngine
	Options    SolverOptions
}

// NewSolver creates a new break-even solver
func NewSolver(calcEngine *calculation.CalculationEngine, options SolverOptions) *Solver {
	if calcEngine == nil {
		calcEngine = calculation.NewCalculationEngine()
	}
	return &Solver{
		CalcEngine: calcEngine,
		Options:    options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calcEngine *calculation.CalculationEngine) *Solver {
	return NewSolver(calcEngine, DefaultSolverOptions())
}

// probe prices the request with the searched discount at step k of the grid
type probe struct {
	ctx        context.Context
	engine     *calculation.CalculationEngine
	refs       *domain.ReferenceData
	req        OptimizationRequest
	resolution decimal.Decimal
	quotes     map[int64]domain.Quote
	iterations int
}

func (p *probe) percentage(k int64) decimal.Decimal {
	return p.resolution.Mul(decimal.NewFromInt(k))
}

func (p *probe) at(k int64) (domain.Quote, error) {
	if q, ok := p.quotes[k]; ok {
		return q, nil
	}
	if err := p.ctx.Err(); err != nil {
		return domain.Quote{}, &BreakEvenError{Operation: "optimize", Message: "search cancelled", Cause: err}
	}
	p.iterations++
	if p.iterations > p.req.MaxIterations {
		return domain.Quote{}, &BreakEvenError{
			Operation: "optimize",
			Message:   fmt.Sprintf("no convergence after %d iterations", p.req.MaxIterations),
		}
	}

	var steps []transform.QuoteTransform
	if k > 0 {
		steps = append(steps, &transform.AddDiscount{DiscountID: p.req.DiscountID, Percentage: p.percentage(k)})
	} else if hasSelection(p.req.Base, p.req.DiscountID) {
		steps = append(steps, &transform.RemoveDiscount{DiscountID: p.req.DiscountID})
	}

	modified, err := transform.ApplyTransforms(p.req.Base, p.refs, steps)
	if err != nil {
		return domain.Quote{}, &BreakEvenError{Operation: "optimize", Message: "failed to apply discount", Cause: err}
	}

	q := p.engine.Quote(modified, p.refs)
	p.quotes[k] = q
	return q, nil
}

func hasSelection(req calculation.QuoteRequest, id string) bool {
	for _, sel := range req.Discounts {
		if sel.DiscountID == id {
			return true
		}
	}
	return false
}

// Optimize performs the search described by req
func (s *Solver) Optimize(ctx context.Context, refs *domain.ReferenceData, req OptimizationRequest) (*OptimizationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if refs == nil {
		return nil, &BreakEvenError{Operation: "optimize", Message: "no reference data", Cause: domain.ErrReferenceDataUnavailable}
	}
	if _, ok := refs.FindSeries(req.Base.SeriesID); !ok {
		return nil, &BreakEvenError{Operation: "optimize", Message: fmt.Sprintf("series %s not found in catalog", req.Base.SeriesID)}
	}
	entry, ok := refs.Discounts.Lookup(req.DiscountID)
	if !ok || !entry.Active {
		return nil, &BreakEvenError{Operation: "optimize", Message: fmt.Sprintf("discount %s is not an active catalog entry", req.DiscountID)}
	}

	// Apply defaults
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Goal == GoalMaxWithinApproval && req.MaxApproval == "" {
		req.MaxApproval = domain.ApprovalAutomatic
	}
	resolution := s.Options.Resolution
	if !resolution.IsPositive() {
		resolution = DefaultSolverOptions().Resolution
	}

	p := &probe{
		ctx:        ctx,
		engine:     s.CalcEngine,
		refs:       refs,
		req:        req,
		resolution: resolution,
		quotes:     map[int64]domain.Quote{},
	}
	maxStep := entry.MaxPercentage.Div(resolution).IntPart()

	// The top of the range also tells us whether the discount applies at all
	top, err := p.at(maxStep)
	if err != nil {
		return nil, err
	}
	for _, ignored := range top.Pricing.Ignored {
		if ignored.DiscountID == req.DiscountID {
			return nil, &BreakEvenError{Operation: "optimize", Message: fmt.Sprintf("discount %s does not apply: %s", req.DiscountID, ignored.Reason)}
		}
	}

	var k int64
	var info string
	var success bool

	switch req.Goal {
	case GoalMatchFinal:
		k, success, info, err = s.matchFinal(p, maxStep)
	case GoalMaxWithinApproval:
		limit := req.MaxApproval.Rank()
		k, success, info, err = s.maximize(p, maxStep, func(q domain.Quote) bool {
			return q.Pricing.IsValid && q.Approval.Level.Rank() <= limit
		})
	case GoalMaxWithinCap:
		k, success, info, err = s.maximize(p, maxStep, func(q domain.Quote) bool {
			return q.Pricing.IsValid
		})
	}
	if err != nil {
		return nil, err
	}

	quote, err := p.at(k)
	if err != nil {
		return nil, err
	}
	baseQuote := s.CalcEngine.Quote(req.Base, refs)

	return &OptimizationResult{
		Request:           req,
		Goal:              req.Goal,
		DiscountID:        req.DiscountID,
		Success:           success,
		Iterations:        p.iterations,
		ConvergenceInfo:   info,
		Percentage:        p.percentage(k),
		Quote:             quote,
		BaseQuote:         baseQuote,
		FinalDiffFromBase: quote.Pricing.FinalValue.Sub(baseQuote.Pricing.FinalValue),
	}, nil
}

// maximize finds the largest step for which ok holds, assuming ok turns false
// at most once as the percentage grows.
func (s *Solver) maximize(p *probe, maxStep int64, ok func(domain.Quote) bool) (int64, bool, string, error) {
	top, err := p.at(maxStep)
	if err != nil {
		return 0, false, "", err
	}
	if ok(top) {
		return maxStep, true, "o percentual máximo do catálogo já atende a meta", nil
	}

	bottom, err := p.at(0)
	if err != nil {
		return 0, false, "", err
	}
	if !ok(bottom) {
		return 0, false, "a meta não é atendida nem sem este desconto", nil
	}

	lo, hi := int64(0), maxStep
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		q, err := p.at(mid)
		if err != nil {
			return 0, false, "", err
		}
		if ok(q) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, true, fmt.Sprintf("limite entre %s%% e %s%%", p.percentage(lo), p.percentage(hi)), nil
}

// matchFinal finds the smallest step whose monthly value is at or below the target
func (s *Solver) matchFinal(p *probe, maxStep int64) (int64, bool, string, error) {
	target := p.req.TargetFinal

	bottom, err := p.at(0)
	if err != nil {
		return 0, false, "", err
	}
	if bottom.Pricing.FinalValue.LessThanOrEqual(target) {
		return 0, bottom.Pricing.IsValid, "a mensalidade já está no alvo sem este desconto", nil
	}

	top, err := p.at(maxStep)
	if err != nil {
		return 0, false, "", err
	}
	if top.Pricing.FinalValue.GreaterThan(target) {
		return maxStep, false, fmt.Sprintf("alvo inatingível: no máximo a mensalidade fica em %s",
			output.FormatCurrency(top.Pricing.FinalValue)), nil
	}

	lo, hi := int64(0), maxStep
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		q, err := p.at(mid)
		if err != nil {
			return 0, false, "", err
		}
		if q.Pricing.FinalValue.LessThanOrEqual(target) {
			hi = mid
		} else {
			lo = mid
		}
	}

	q, err := p.at(hi)
	if err != nil {
		return 0, false, "", err
	}
	if !q.Pricing.IsValid {
		return hi, false, "o alvo é atingido, mas a combinação é inválida (CAP excedido)", nil
	}
	diff := target.Sub(q.Pricing.FinalValue)
	return hi, true, fmt.Sprintf("mensalidade %s abaixo do alvo", output.FormatCurrency(diff)), nil
}
