package calculation

import (
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultCapMaximum is the CAP ceiling used while no track is selected.
// It sits at 101 rather than 100 to tolerate rounding across combined percentages.
var DefaultCapMaximum = decimal.NewFromInt(101)

// DefaultInstallments is the number of monthly charges in a school year
const DefaultInstallments = 12

// Policy holds the business knobs of a pricing pass
type Policy struct {
	DefaultCapMaximum decimal.Decimal `yaml:"default_cap_maximum" json:"defaultCapMaximum"`
	Installments      int             `yaml:"installments" json:"installments"`
	// FullScholarshipCapExempt lets a lone full-scholarship selection skip the CAP check
	FullScholarshipCapExempt bool `yaml:"full_scholarship_cap_exempt" json:"fullScholarshipCapExempt"`
	// FullScholarshipCategories are the categories treated as full scholarships; empty means bolsa_integral
	FullScholarshipCategories []domain.DiscountCategory `yaml:"full_scholarship_categories" json:"fullScholarshipCategories"`
}

// DefaultPolicy returns the policy used when settings do not override it
func DefaultPolicy() Policy {
	return Policy{
		DefaultCapMaximum:         DefaultCapMaximum,
		Installments:              DefaultInstallments,
		FullScholarshipCategories: []domain.DiscountCategory{domain.CategoryFullScholarship},
	}
}

func (p Policy) capCeiling() decimal.Decimal {
	if p.DefaultCapMaximum.IsZero() {
		return DefaultCapMaximum
	}
	return p.DefaultCapMaximum
}

func (p Policy) installments() int {
	if p.Installments <= 0 {
		return DefaultInstallments
	}
	return p.Installments
}

// IsFullScholarship reports whether entry belongs to a full-scholarship category
func (p Policy) IsFullScholarship(entry domain.DiscountCatalogEntry) bool {
	if len(p.FullScholarshipCategories) == 0 {
		return entry.Category == domain.CategoryFullScholarship
	}
	for _, category := range p.FullScholarshipCategories {
		if entry.Category == category {
			return true
		}
	}
	return false
}
