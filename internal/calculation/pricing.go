package calculation

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// EligibilityFunc decides whether a resolved catalog entry may be applied.
// A non-nil error excludes the selection and becomes a validation message.
type EligibilityFunc func(entry domain.DiscountCatalogEntry) error

// PricingInput is everything a pricing pass reads
type PricingInput struct {
	BaseValue  decimal.Decimal
	Selections []domain.SelectedDiscount
	Catalog    domain.DiscountCatalog
	// CapMaximum is the selected track's ceiling; nil falls back to the policy default
	CapMaximum *decimal.Decimal
	Eligible   EligibilityFunc
}

// PricingCalculator turns a base value and discount selections into a PricingResult.
// It holds no state between calls.
type PricingCalculator struct {
	Policy Policy
}

// NewPricingCalculator creates a calculator with the default policy
func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{Policy: DefaultPolicy()}
}

// NewPricingCalculatorWithPolicy creates a calculator with a configured policy
func NewPricingCalculatorWithPolicy(policy Policy) *PricingCalculator {
	return &PricingCalculator{Policy: policy}
}

var centsPlaces int32 = 2

// Calculate prices the selections. Bad input never panics or errors; it is encoded
// in ValidationErrors and IsValid.
func (pc *PricingCalculator) Calculate(in PricingInput) (domain.PricingResult, domain.CapCheck) {
	result := domain.PricingResult{
		Discounts:        []domain.AppliedDiscount{},
		ValidationErrors: []string{},
		Warnings:         []string{},
	}

	base := in.BaseValue
	if base.IsNegative() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("valor base negativo (%s) ajustado para 0", base.StringFixed(centsPlaces)))
		base = decimal.Zero
	}
	result.BaseValue = base

	total := decimal.Zero
	var applied []domain.DiscountCatalogEntry
	seen := make(map[string]bool, len(in.Selections))

	for _, sel := range in.Selections {
		reason := pc.rejectReason(sel, in, seen)
		if reason != "" {
			result.ValidationErrors = append(result.ValidationErrors, reason)
			result.Ignored = append(result.Ignored, domain.IgnoredDiscount{
				DiscountID: sel.DiscountID,
				Percentage: sel.AppliedPercentage,
				Reason:     reason,
			})
			continue
		}

		entry, _ := in.Catalog.Lookup(sel.DiscountID)
		seen[sel.DiscountID] = true
		applied = append(applied, entry)
		total = total.Add(sel.AppliedPercentage)
		result.Discounts = append(result.Discounts, domain.AppliedDiscount{
			ID:         entry.ID,
			Code:       entry.Code,
			Name:       entry.Name,
			Percentage: sel.AppliedPercentage,
			Value:      percentOf(base, sel.AppliedPercentage),
		})
	}

	result.TotalDiscountPercentage = total
	result.TotalDiscountValue = percentOf(base, total)

	final := base.Sub(result.TotalDiscountValue)
	if final.IsNegative() {
		result.Warnings = append(result.Warnings, "desconto total supera o valor base; valor final limitado a 0")
		final = decimal.Zero
	}
	result.FinalValue = final

	ceiling := pc.Policy.capCeiling()
	if in.CapMaximum != nil {
		ceiling = *in.CapMaximum
	}
	capCheck := validateCap(total, ceiling)
	if capCheck.Exceeded {
		if pc.capExempt(applied) {
			result.Warnings = append(result.Warnings, "bolsa integral isenta do CAP da trilha")
		} else {
			capErr := &domain.CapExceededError{Utilized: total, Maximum: ceiling}
			result.ValidationErrors = append(result.ValidationErrors, capErr.Error())
		}
	}

	result.IsValid = len(result.ValidationErrors) == 0
	return result, capCheck
}

// CalculateFloat prices with a float base value, coercing NaN, infinities and
// negatives to zero with a warning.
func (pc *PricingCalculator) CalculateFloat(base float64, in PricingInput) (domain.PricingResult, domain.CapCheck) {
	var warning string
	switch {
	case math.IsNaN(base) || math.IsInf(base, 0):
		warning = "valor base inválido ajustado para 0"
		base = 0
	case base < 0:
		warning = fmt.Sprintf("valor base negativo (%.2f) ajustado para 0", base)
		base = 0
	}
	in.BaseValue = decimal.NewFromFloat(base)
	result, capCheck := pc.Calculate(in)
	if warning != "" {
		result.Warnings = append([]string{warning}, result.Warnings...)
	}
	return result, capCheck
}

func (pc *PricingCalculator) rejectReason(sel domain.SelectedDiscount, in PricingInput, seen map[string]bool) string {
	entry, ok := in.Catalog.Lookup(sel.DiscountID)
	switch {
	case !ok:
		return fmt.Sprintf("desconto %s não encontrado no catálogo", sel.DiscountID)
	case !entry.Active:
		return fmt.Sprintf("desconto %s (%s) está inativo", entry.Code, entry.ID)
	case seen[sel.DiscountID]:
		return fmt.Sprintf("desconto %s selecionado mais de uma vez", entry.Code)
	case !sel.AppliedPercentage.IsPositive():
		return fmt.Sprintf("desconto %s: percentual aplicado deve ser maior que zero", entry.Code)
	case sel.AppliedPercentage.GreaterThan(entry.MaxPercentage):
		return fmt.Sprintf("desconto %s: desconto excede percentual máximo permitido (%s%% > %s%%)",
			entry.Code, sel.AppliedPercentage.String(), entry.MaxPercentage.String())
	}
	if in.Eligible != nil {
		if err := in.Eligible(entry); err != nil {
			return fmt.Sprintf("desconto %s: %v", entry.Code, err)
		}
	}
	return ""
}

// capExempt applies only when the policy allows it and the sole applied
// discount is a full scholarship.
func (pc *PricingCalculator) capExempt(applied []domain.DiscountCatalogEntry) bool {
	return pc.Policy.FullScholarshipCapExempt && len(applied) == 1 && pc.Policy.IsFullScholarship(applied[0])
}

func percentOf(base, percentage decimal.Decimal) decimal.Decimal {
	return base.Mul(percentage).Div(hundred).Round(centsPlaces)
}

var hundred = decimal.NewFromInt(100)
