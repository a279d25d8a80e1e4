package calculation

import (
	"math"
	"testing"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingCalculator_EmptySelections(t *testing.T) {
	pc := NewPricingCalculator()

	for _, base := range []string{"0", "0.01", "1000", "1234.56", "98765.43"} {
		t.Run(base, func(t *testing.T) {
			result, capCheck := pc.Calculate(PricingInput{
				BaseValue: decimal.RequireFromString(base),
				Catalog:   testCatalog(),
			})

			assertDecimal(t, base, result.FinalValue)
			assert.True(t, result.TotalDiscountPercentage.IsZero())
			assert.True(t, result.TotalDiscountValue.IsZero())
			assert.True(t, result.IsValid)
			assert.Empty(t, result.ValidationErrors)
			assert.False(t, capCheck.Exceeded)
		})
	}
}

func TestPricingCalculator_ScenarioA(t *testing.T) {
	pc := NewPricingCalculator()

	result, capCheck := pc.Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(1000),
		Selections: []domain.SelectedDiscount{sel("pont", 10), sel("irm", 15)},
		Catalog:    testCatalog(),
		CapMaximum: decPtr(101),
	})

	assertDecimal(t, "25", result.TotalDiscountPercentage)
	assertDecimal(t, "250", result.TotalDiscountValue)
	assertDecimal(t, "750", result.FinalValue)
	assert.True(t, result.IsValid)
	assert.False(t, capCheck.Exceeded)
	assertDecimal(t, "76", capCheck.CapAvailable)
	assert.Equal(t, domain.ApprovalCoordinator, ClassifyApproval(result.TotalDiscountPercentage).Level)

	require.Len(t, result.Discounts, 2)
	assert.Equal(t, "PONT", result.Discounts[0].Code)
	assertDecimal(t, "100", result.Discounts[0].Value)
	assert.Equal(t, "IRM", result.Discounts[1].Code)
	assertDecimal(t, "150", result.Discounts[1].Value)
}

func TestPricingCalculator_ScenarioB(t *testing.T) {
	pc := NewPricingCalculator()

	result, capCheck := pc.Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(1000),
		Selections: []domain.SelectedDiscount{sel("com", 60)},
		Catalog:    testCatalog(),
		CapMaximum: decPtr(50),
	})

	assert.True(t, capCheck.Exceeded)
	assert.True(t, capCheck.CapAvailable.IsZero())
	assert.False(t, result.IsValid)
	require.Len(t, result.ValidationErrors, 1)
	assert.Contains(t, result.ValidationErrors[0], "60% de 50% utilizado")
	assert.Equal(t, domain.ApprovalDirector, ClassifyApproval(result.TotalDiscountPercentage).Level)
}

func TestPricingCalculator_RejectedSelections(t *testing.T) {
	testCases := []struct {
		desc     string
		sel      domain.SelectedDiscount
		contains string
	}{
		{desc: "unknown id", sel: sel("nope", 5), contains: "não encontrado"},
		{desc: "inactive entry", sel: sel("old", 5), contains: "inativo"},
		{desc: "above max percentage", sel: sel("pont", 12), contains: "desconto excede percentual máximo permitido"},
		{desc: "zero percentage", sel: sel("irm", 0), contains: "maior que zero"},
		{desc: "negative percentage", sel: sel("irm", -5), contains: "maior que zero"},
	}

	pc := NewPricingCalculator()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			result, _ := pc.Calculate(PricingInput{
				BaseValue:  decimal.NewFromInt(1000),
				Selections: []domain.SelectedDiscount{tc.sel, sel("irm", 10)},
				Catalog:    testCatalog(),
			})

			assert.False(t, result.IsValid)
			require.Len(t, result.ValidationErrors, 1)
			assert.Contains(t, result.ValidationErrors[0], tc.contains)
			require.Len(t, result.Ignored, 1)
			assert.Equal(t, tc.sel.DiscountID, result.Ignored[0].DiscountID)

			// The rejected selection is excluded from the sums
			assertDecimal(t, "10", result.TotalDiscountPercentage)
			assertDecimal(t, "900", result.FinalValue)
		})
	}
}

func TestPricingCalculator_DuplicateSelection(t *testing.T) {
	pc := NewPricingCalculator()

	result, _ := pc.Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(1000),
		Selections: []domain.SelectedDiscount{sel("irm", 10), sel("irm", 10)},
		Catalog:    testCatalog(),
	})

	assert.False(t, result.IsValid)
	assertDecimal(t, "10", result.TotalDiscountPercentage)
	assert.Contains(t, result.ValidationErrors[0], "mais de uma vez")
}

func TestPricingCalculator_FinalValueNeverNegative(t *testing.T) {
	pc := NewPricingCalculator()

	result, capCheck := pc.Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(1000),
		Selections: []domain.SelectedDiscount{sel("bolsa", 100), sel("com", 60)},
		Catalog:    testCatalog(),
		CapMaximum: decPtr(200),
	})

	assert.False(t, capCheck.Exceeded)
	assert.True(t, result.IsValid)
	assertDecimal(t, "160", result.TotalDiscountPercentage)
	assert.True(t, result.FinalValue.IsZero())
	assert.Contains(t, result.Warnings, "desconto total supera o valor base; valor final limitado a 0")
}

func TestPricingCalculator_FullScholarship(t *testing.T) {
	t.Run("reaches 100% under the default ceiling", func(t *testing.T) {
		result, capCheck := NewPricingCalculator().Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("bolsa", 100)},
			Catalog:    testCatalog(),
		})

		assert.True(t, result.IsValid)
		assert.False(t, capCheck.Exceeded)
		assert.True(t, result.FinalValue.IsZero())
		assert.Empty(t, result.Warnings)
	})

	t.Run("subject to the track CAP by default", func(t *testing.T) {
		result, capCheck := NewPricingCalculator().Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("bolsa", 100)},
			Catalog:    testCatalog(),
			CapMaximum: decPtr(50),
		})

		assert.True(t, capCheck.Exceeded)
		assert.False(t, result.IsValid)
	})

	t.Run("exempt when policy allows a lone scholarship", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.FullScholarshipCapExempt = true
		pc := NewPricingCalculatorWithPolicy(policy)

		result, capCheck := pc.Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("bolsa", 100)},
			Catalog:    testCatalog(),
			CapMaximum: decPtr(50),
		})
		assert.True(t, capCheck.Exceeded)
		assert.True(t, result.IsValid)
		assert.Contains(t, result.Warnings, "bolsa integral isenta do CAP da trilha")

		combined, _ := pc.Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("bolsa", 90), sel("irm", 10)},
			Catalog:    testCatalog(),
			CapMaximum: decPtr(50),
		})
		assert.False(t, combined.IsValid, "exemption never covers combinations")
	})

	t.Run("categories come from the policy", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.FullScholarshipCapExempt = true
		policy.FullScholarshipCategories = []domain.DiscountCategory{domain.CategoryCommercial}
		pc := NewPricingCalculatorWithPolicy(policy)

		commercial, _ := pc.Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("com", 60)},
			Catalog:    testCatalog(),
			CapMaximum: decPtr(50),
		})
		assert.True(t, commercial.IsValid)

		scholarship, _ := pc.Calculate(PricingInput{
			BaseValue:  decimal.NewFromInt(1500),
			Selections: []domain.SelectedDiscount{sel("bolsa", 100)},
			Catalog:    testCatalog(),
			CapMaximum: decPtr(50),
		})
		assert.False(t, scholarship.IsValid)
	})
}

func TestPricingCalculator_NegativeBaseValue(t *testing.T) {
	result, _ := NewPricingCalculator().Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(-50),
		Selections: []domain.SelectedDiscount{sel("irm", 10)},
		Catalog:    testCatalog(),
	})

	assert.True(t, result.BaseValue.IsZero())
	assert.True(t, result.FinalValue.IsZero())
	assert.True(t, result.IsValid)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "ajustado para 0")
}

func TestPricingCalculator_CalculateFloat(t *testing.T) {
	pc := NewPricingCalculator()

	for _, base := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -10} {
		result, _ := pc.CalculateFloat(base, PricingInput{Catalog: testCatalog()})
		assert.True(t, result.BaseValue.IsZero())
		assert.True(t, result.FinalValue.IsZero())
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
	}

	result, _ := pc.CalculateFloat(1000, PricingInput{
		Selections: []domain.SelectedDiscount{sel("pont", 10)},
		Catalog:    testCatalog(),
	})
	assertDecimal(t, "900", result.FinalValue)
	assert.Empty(t, result.Warnings)
}

func TestPricingCalculator_RoundsToCents(t *testing.T) {
	result, _ := NewPricingCalculator().Calculate(PricingInput{
		BaseValue:  decimal.RequireFromString("2150.50"),
		Selections: []domain.SelectedDiscount{sel("pont", 7.5)},
		Catalog:    testCatalog(),
	})

	// 2150.50 * 7.5% = 161.2875
	assertDecimal(t, "161.29", result.TotalDiscountValue)
	assertDecimal(t, "1989.21", result.FinalValue)
}

func TestPricingCalculator_Idempotent(t *testing.T) {
	pc := NewPricingCalculator()
	in := PricingInput{
		BaseValue:  decimal.RequireFromString("1890.75"),
		Selections: []domain.SelectedDiscount{sel("pont", 5), sel("irm", 12.5), sel("nope", 3)},
		Catalog:    testCatalog(),
		CapMaximum: decPtr(50),
	}

	first, firstCap := pc.Calculate(in)
	second, secondCap := pc.Calculate(in)

	assert.Equal(t, first, second)
	assert.Equal(t, firstCap, secondCap)
}

func TestPricingCalculator_EligibilityHook(t *testing.T) {
	result, _ := NewPricingCalculator().Calculate(PricingInput{
		BaseValue:  decimal.NewFromInt(1000),
		Selections: []domain.SelectedDiscount{sel("irm", 10), sel("pont", 5)},
		Catalog:    testCatalog(),
		Eligible: func(entry domain.DiscountCatalogEntry) error {
			if entry.Category == domain.CategorySibling {
				return assert.AnError
			}
			return nil
		},
	})

	assert.False(t, result.IsValid)
	assertDecimal(t, "5", result.TotalDiscountPercentage)
	require.Len(t, result.Ignored, 1)
	assert.Equal(t, "irm", result.Ignored[0].DiscountID)
}
