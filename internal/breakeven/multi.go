package breakeven

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/output"
)

// OptimizeAllDiscounts runs the same goal for every active catalog discount.
// Discounts that cannot apply to the request are skipped.
func (s *Solver) OptimizeAllDiscounts(ctx context.Context, refs *domain.ReferenceData, req OptimizationRequest) (*MultiDimensionalResult, error) {
	if refs == nil {
		return nil, &BreakEvenError{Operation: "optimize_all", Message: "no reference data", Cause: domain.ErrReferenceDataUnavailable}
	}

	var results []OptimizationResult
	for _, entry := range refs.Discounts.ActiveEntries() {
		one := req
		one.DiscountID = entry.ID

		result, err := s.Optimize(ctx, refs, one)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			continue
		}
		results = append(results, *result)
	}

	if len(results) == 0 {
		return nil, &BreakEvenError{
			Operation: "optimize_all",
			Message:   "no discount can be applied to this request",
		}
	}

	mdResult := &MultiDimensionalResult{
		Goal:    req.Goal,
		Results: results,
	}

	for i := range results {
		if !results[i].Success {
			continue
		}
		if mdResult.BestByFinal == nil ||
			results[i].Quote.Pricing.FinalValue.LessThan(mdResult.BestByFinal.Quote.Pricing.FinalValue) {
			mdResult.BestByFinal = &results[i]
		}
	}

	mdResult.Recommendations = s.generateRecommendations(mdResult)
	return mdResult, nil
}

func (s *Solver) generateRecommendations(result *MultiDimensionalResult) []string {
	var recommendations []string

	if best := result.BestByFinal; best != nil {
		recommendations = append(recommendations, fmt.Sprintf("Menor mensalidade: %s a %s%% resulta em %s",
			best.DiscountID, best.Percentage.String(), output.FormatCurrency(best.Quote.Pricing.FinalValue)))
	}

	for _, r := range result.Results {
		if !r.Success {
			recommendations = append(recommendations, fmt.Sprintf("%s: %s", r.DiscountID, r.ConvergenceInfo))
		}
	}

	return recommendations
}
