package calculation

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidateCap compares the cumulative discount against the track ceiling.
// A nil capMaximum means no track is selected yet and DefaultCapMaximum applies.
func ValidateCap(utilized decimal.Decimal, capMaximum *decimal.Decimal) domain.CapCheck {
	ceiling := DefaultCapMaximum
	if capMaximum != nil {
		ceiling = *capMaximum
	}
	return validateCap(utilized, ceiling)
}

func validateCap(utilized, ceiling decimal.Decimal) domain.CapCheck {
	available := ceiling.Sub(utilized)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return domain.CapCheck{
		CapMaximum:   ceiling,
		CapUtilized:  utilized,
		CapAvailable: available,
		Exceeded:     utilized.GreaterThan(ceiling),
	}
}

// CapBanner renders the utilization line shown on the discount step
func CapBanner(check domain.CapCheck) string {
	return fmt.Sprintf("%s%% de %s%% utilizado", check.CapUtilized.String(), check.CapMaximum.String())
}
