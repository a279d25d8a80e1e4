package compare

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/transform"
	"github.com/shopspring/decimal"
)

// Scenario is one alternative discount package priced against the base request.
// An empty TrackID keeps the base track and nil Discounts keep the base
// selection. Transforms are parsed specs applied after both, then Steps.
type Scenario struct {
	Name        string                     `yaml:"name" json:"name"`
	Description string                     `yaml:"description,omitempty" json:"description,omitempty"`
	TrackID     string                     `yaml:"track_id,omitempty" json:"trackId,omitempty"`
	Discounts   []domain.SelectedDiscount  `yaml:"discounts" json:"discounts"`
	Transforms  []string                   `yaml:"transforms,omitempty" json:"transforms,omitempty"`
	Steps       []transform.QuoteTransform `yaml:"-" json:"-"`
}

// ScenarioFromTemplate turns a built-in template into a scenario
func ScenarioFromTemplate(t transform.Template) Scenario {
	return Scenario{Name: t.Name, Description: t.Description, Steps: t.Transforms}
}

// Request is a base quote plus the alternatives to compare it with
type Request struct {
	BaseName  string                   `yaml:"base_name" json:"baseName"`
	Base      calculation.QuoteRequest `yaml:"base" json:"base"`
	Scenarios []Scenario               `yaml:"scenarios" json:"scenarios"`
}

// ComparisonResult represents a single priced package with its deltas from the base
type ComparisonResult struct {
	ScenarioName string       `json:"scenarioName"`
	Description  string       `json:"description,omitempty"`
	Quote        domain.Quote `json:"-"`

	// Key Metrics
	FinalValue              decimal.Decimal     `json:"finalValue"`
	TotalDiscountPercentage decimal.Decimal     `json:"totalDiscountPercentage"`
	TotalDiscountValue      decimal.Decimal     `json:"totalDiscountValue"`
	AnnualTotal             decimal.Decimal     `json:"annualTotal"`
	CapBanner               string              `json:"capBanner"`
	Valid                   bool                `json:"valid"`
	ApprovalLevel           domain.ApprovalTier `json:"approvalLevel"`
	Issues                  []string            `json:"issues,omitempty"`

	// Comparison to Base
	FinalDiffFromBase  decimal.Decimal `json:"finalDiffFromBase"`
	AnnualDiffFromBase decimal.Decimal `json:"annualDiffFromBase"`
	ApprovalStepsDiff  int             `json:"approvalStepsDiff"`
}

// ComparisonSet represents a collection of package comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	SeriesID           string             `json:"seriesId"`
	TrackID            string             `json:"trackId"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
}

// MetricsCalculator extracts key metrics from quotes
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the comparison metrics of one quote
func (mc *MetricsCalculator) CalculateMetrics(name string, quote domain.Quote) ComparisonResult {
	pricing := quote.Pricing
	result := ComparisonResult{
		ScenarioName:            name,
		Quote:                   quote,
		FinalValue:              pricing.FinalValue,
		TotalDiscountPercentage: pricing.TotalDiscountPercentage,
		TotalDiscountValue:      pricing.TotalDiscountValue,
		AnnualTotal:             quote.Annual.AnnualTotal,
		CapBanner:               calculation.CapBanner(quote.Cap),
		Valid:                   pricing.IsValid,
		ApprovalLevel:           quote.Approval.Level,
	}
	result.Issues = append(result.Issues, pricing.ValidationErrors...)
	for _, ignored := range pricing.Ignored {
		result.Issues = append(result.Issues, fmt.Sprintf("%s ignorado: %s", ignored.DiscountID, ignored.Reason))
	}
	return result
}

// CalculateComparison computes the deltas between a package and the base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.FinalDiffFromBase = scenario.FinalValue.Sub(base.FinalValue)
	scenario.AnnualDiffFromBase = scenario.AnnualTotal.Sub(base.AnnualTotal)
	scenario.ApprovalStepsDiff = scenario.ApprovalLevel.Rank() - base.ApprovalLevel.Rank()
	return scenario
}

// GenerateRecommendations points out the cheapest valid package and the
// cheapest one that needs no sign-off, and flags invalid packages.
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	all := make([]*ComparisonResult, 0, len(compSet.AlternativeResults)+1)
	all = append(all, compSet.BaseResult)
	for i := range compSet.AlternativeResults {
		all = append(all, &compSet.AlternativeResults[i])
	}

	var cheapest, cheapestAutomatic *ComparisonResult
	for _, r := range all {
		if !r.Valid {
			continue
		}
		if cheapest == nil || r.FinalValue.LessThan(cheapest.FinalValue) {
			cheapest = r
		}
		if r.ApprovalLevel == domain.ApprovalAutomatic &&
			(cheapestAutomatic == nil || r.FinalValue.LessThan(cheapestAutomatic.FinalValue)) {
			cheapestAutomatic = r
		}
	}

	if cheapest != nil && cheapest != compSet.BaseResult {
		saving := compSet.BaseResult.FinalValue.Sub(cheapest.FinalValue)
		if saving.IsPositive() {
			recommendations = append(recommendations,
				"Menor mensalidade: "+cheapest.ScenarioName+" custa "+output.FormatCurrency(saving)+
					" a menos por mês que "+compSet.BaseResult.ScenarioName)
		}
	}

	if cheapestAutomatic != nil && cheapestAutomatic != cheapest {
		recommendations = append(recommendations,
			"Sem aprovação: "+cheapestAutomatic.ScenarioName+" é a opção mais barata com aprovação automática")
	}

	for _, r := range all {
		if !r.Valid {
			recommendations = append(recommendations, "Inválido: "+r.ScenarioName+" ("+r.CapBanner+")")
		}
	}

	return recommendations
}
