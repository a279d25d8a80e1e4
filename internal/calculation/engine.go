package calculation

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// RuleChecker evaluates a catalog entry's eligibility against the form snapshot
type RuleChecker interface {
	Check(entry domain.DiscountCatalogEntry, snapshot domain.FormSnapshot) error
}

// CalculationEngine orchestrates a full pricing pass: base value resolution,
// eligibility, discount pricing, CAP validation and approval classification.
type CalculationEngine struct {
	Pricing *PricingCalculator
	Rules   RuleChecker
	Policy  Policy
	Logger  Logger
	Debug   bool // Enable debug output for detailed calculations
}

// NewCalculationEngine creates a new calculation engine with the default policy
func NewCalculationEngine() *CalculationEngine {
	return NewCalculationEngineWithPolicy(DefaultPolicy())
}

// NewCalculationEngineWithPolicy creates a calculation engine with configured policy
func NewCalculationEngineWithPolicy(policy Policy) *CalculationEngine {
	return &CalculationEngine{
		Pricing: NewPricingCalculatorWithPolicy(policy),
		Policy:  policy,
		Logger:  NopLogger{},
	}
}

// SetLogger sets the engine logger; nil restores the no-op logger
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// SetRules installs the eligibility checker used on every derive
func (ce *CalculationEngine) SetRules(r RuleChecker) {
	ce.Rules = r
}

// Derive computes the quote for a snapshot. It is pure with respect to its
// arguments and is called after every mutation that touches pricing inputs.
func (ce *CalculationEngine) Derive(snapshot domain.FormSnapshot, refs *domain.ReferenceData) domain.Quote {
	quote := domain.Quote{
		Base:    domain.BaseTuition{SeriesID: snapshot.Academic.SeriesID, Value: decimal.Zero},
		TrackID: snapshot.Academic.TrackID,
	}

	var notes []string
	series, seriesFound := refs.FindSeries(snapshot.Academic.SeriesID)
	switch {
	case snapshot.Academic.SeriesID == "":
		notes = append(notes, "série não selecionada; valor base considerado 0")
	case !seriesFound:
		notes = append(notes, fmt.Sprintf("série %s não encontrada; valor base considerado 0", snapshot.Academic.SeriesID))
	default:
		quote.Base.Value = series.BaseMonthlyValue
	}

	var capMaximum *decimal.Decimal
	if snapshot.Academic.TrackID != "" {
		if track, ok := refs.FindTrack(snapshot.Academic.TrackID); ok {
			ceiling := track.CapMaximum
			capMaximum = &ceiling
		} else {
			notes = append(notes, fmt.Sprintf("trilha %s não encontrada; CAP padrão aplicado", snapshot.Academic.TrackID))
		}
	}

	in := PricingInput{
		BaseValue:  quote.Base.Value,
		Selections: snapshot.Discounts,
		CapMaximum: capMaximum,
	}
	if refs != nil {
		in.Catalog = refs.Discounts
	}
	if ce.Rules != nil {
		in.Eligible = func(entry domain.DiscountCatalogEntry) error {
			return ce.Rules.Check(entry, snapshot)
		}
	}

	pricing, capCheck := ce.pricing().Calculate(in)
	if len(notes) > 0 {
		pricing.Warnings = append(notes, pricing.Warnings...)
	}

	quote.Pricing = pricing
	quote.Cap = capCheck
	// The classifier sees the raw total even when the combination is invalid.
	quote.Approval = ClassifyApproval(pricing.TotalDiscountPercentage)
	quote.Annual = ce.annualSummary(pricing, series.MaterialValue)

	if ce.Debug {
		ce.logger().Debugf("derive series=%s track=%s base=%s total=%s%% final=%s valid=%t approval=%s",
			snapshot.Academic.SeriesID, snapshot.Academic.TrackID, quote.Base.Value.StringFixed(2),
			pricing.TotalDiscountPercentage.String(), pricing.FinalValue.StringFixed(2), pricing.IsValid, quote.Approval.Level)
	}
	if capCheck.Exceeded {
		ce.logger().Warnf("CAP exceeded: %s", CapBanner(capCheck))
	}

	return quote
}

// QuoteRequest prices a selection without a full intake, as the CLI and API do
type QuoteRequest struct {
	SeriesID       string                    `yaml:"series_id" json:"seriesId"`
	TrackID        string                    `yaml:"track_id" json:"trackId"`
	Discounts      []domain.SelectedDiscount `yaml:"discounts" json:"discounts"`
	Siblings       int                       `yaml:"siblings,omitempty" json:"siblings,omitempty"`
	SchoolEmployee bool                      `yaml:"school_employee,omitempty" json:"schoolEmployee,omitempty"`
}

// Snapshot builds the minimal form snapshot a quote request represents
func (qr QuoteRequest) Snapshot() domain.FormSnapshot {
	snapshot := domain.DefaultFormSnapshot()
	snapshot.Academic.SeriesID = qr.SeriesID
	snapshot.Academic.TrackID = qr.TrackID
	snapshot.Student.Siblings = qr.Siblings
	if qr.SchoolEmployee {
		snapshot.Guardians = append(snapshot.Guardians, domain.Guardian{SchoolEmployee: true, FinancialResponsible: true})
	}
	snapshot.Discounts = append(snapshot.Discounts, qr.Discounts...)
	return snapshot
}

// Quote derives a quote for a standalone request
func (ce *CalculationEngine) Quote(req QuoteRequest, refs *domain.ReferenceData) domain.Quote {
	return ce.Derive(req.Snapshot(), refs)
}

func (ce *CalculationEngine) annualSummary(pricing domain.PricingResult, material decimal.Decimal) domain.AnnualSummary {
	installments := ce.Policy.installments()
	n := decimal.NewFromInt(int64(installments))
	tuition := pricing.FinalValue.Mul(n)
	return domain.AnnualSummary{
		Installments:   installments,
		MonthlyValue:   pricing.FinalValue,
		AnnualTuition:  tuition,
		MaterialValue:  material,
		AnnualTotal:    tuition.Add(material),
		AnnualDiscount: pricing.TotalDiscountValue.Mul(n),
	}
}

func (ce *CalculationEngine) pricing() *PricingCalculator {
	if ce.Pricing == nil {
		ce.Pricing = NewPricingCalculatorWithPolicy(ce.Policy)
	}
	return ce.Pricing
}

func (ce *CalculationEngine) logger() Logger {
	if ce.Logger == nil {
		return NopLogger{}
	}
	return ce.Logger
}
