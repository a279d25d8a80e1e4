// Package compare prices alternative discount packages for the same student
// and reports how each differs from a base package.
package compare

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/transform"
)

// CompareEngine orchestrates package comparison
type CompareEngine struct {
	CalcEngine        *calculation.CalculationEngine
	MetricsCalculator *MetricsCalculator
	Transforms        *transform.TransformRegistry
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.CalculationEngine) *CompareEngine {
	if calcEngine == nil {
		calcEngine = calculation.NewCalculationEngine()
	}
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
		Transforms:        transform.NewTransformRegistry(),
	}
}

// Compare prices the base request and every scenario against refs
func (ce *CompareEngine) Compare(ctx context.Context, refs *domain.ReferenceData, req Request) (*ComparisonSet, error) {
	if refs == nil {
		return nil, &domain.DataError{Source: "reference", Err: errors.New("no reference data")}
	}
	if _, ok := refs.FindSeries(req.Base.SeriesID); !ok {
		return nil, fmt.Errorf("base series %q not found in catalog", req.Base.SeriesID)
	}

	baseName := req.BaseName
	if baseName == "" {
		baseName = "base"
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics(baseName, ce.CalcEngine.Quote(req.Base, refs))

	seen := map[string]bool{baseName: true}
	alternatives := []ComparisonResult{}

	for _, scenario := range req.Scenarios {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("comparison cancelled: %w", err)
		}
		if scenario.Name == "" {
			return nil, fmt.Errorf("scenario %d has no name", len(alternatives)+1)
		}
		if seen[scenario.Name] {
			return nil, fmt.Errorf("duplicate scenario name %q", scenario.Name)
		}
		seen[scenario.Name] = true

		altReq, err := ce.scenarioRequest(req.Base, refs, scenario)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(scenario.Name, ce.CalcEngine.Quote(altReq, refs))
		altResult.Description = scenario.Description
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)

		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseName,
		SeriesID:           req.Base.SeriesID,
		TrackID:            req.Base.TrackID,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

// scenarioRequest builds the quote request a scenario describes
func (ce *CompareEngine) scenarioRequest(base calculation.QuoteRequest, refs *domain.ReferenceData, scenario Scenario) (calculation.QuoteRequest, error) {
	altReq := transform.Clone(base)
	if scenario.Discounts != nil {
		altReq.Discounts = scenario.Discounts
	}
	if scenario.TrackID != "" {
		altReq.TrackID = scenario.TrackID
	}

	steps, err := ce.Transforms.ParseAll(scenario.Transforms)
	if err != nil {
		return calculation.QuoteRequest{}, err
	}
	steps = append(steps, scenario.Steps...)
	return transform.ApplyTransforms(altReq, refs, steps)
}
