package transform

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AddDiscount selects a catalog discount at the given percentage.
// A discount already in the request has its percentage replaced.
type AddDiscount struct {
	DiscountID string
	Percentage decimal.Decimal
}

func (ad *AddDiscount) Name() string {
	return "add_discount"
}

func (ad *AddDiscount) Description() string {
	return fmt.Sprintf("Aplica %s a %s%%", ad.DiscountID, ad.Percentage.String())
}

func (ad *AddDiscount) Validate(base calculation.QuoteRequest, refs *domain.ReferenceData) error {
	if ad.DiscountID == "" {
		return NewTransformError(ad.Name(), "validate", "discount id cannot be empty", nil)
	}
	if !ad.Percentage.IsPositive() || ad.Percentage.GreaterThan(hundred) {
		return NewTransformError(ad.Name(), "validate", fmt.Sprintf("percentage must be in (0, 100], got %s", ad.Percentage), nil)
	}
	if refs == nil {
		return nil
	}

	entry, ok := refs.Discounts.Lookup(ad.DiscountID)
	if !ok {
		return NewTransformError(ad.Name(), "validate", fmt.Sprintf("discount %s not found in catalog", ad.DiscountID), nil)
	}
	if !entry.Active {
		return NewTransformError(ad.Name(), "validate", fmt.Sprintf("discount %s is inactive", ad.DiscountID), nil)
	}
	if ad.Percentage.GreaterThan(entry.MaxPercentage) {
		return NewTransformError(ad.Name(), "validate",
			fmt.Sprintf("percentage %s exceeds the %s maximum of %s", ad.Percentage, entry.Code, entry.MaxPercentage), nil)
	}
	return nil
}

func (ad *AddDiscount) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)

	for i, sel := range modified.Discounts {
		if sel.DiscountID == ad.DiscountID {
			modified.Discounts[i].AppliedPercentage = ad.Percentage
			return modified, nil
		}
	}

	modified.Discounts = append(modified.Discounts, domain.SelectedDiscount{
		DiscountID:        ad.DiscountID,
		AppliedPercentage: ad.Percentage,
	})
	return modified, nil
}

// RemoveDiscount drops a selected discount from the request
type RemoveDiscount struct {
	DiscountID string
}

func (rd *RemoveDiscount) Name() string {
	return "remove_discount"
}

func (rd *RemoveDiscount) Description() string {
	return fmt.Sprintf("Remove %s", rd.DiscountID)
}

func (rd *RemoveDiscount) Validate(base calculation.QuoteRequest, _ *domain.ReferenceData) error {
	if rd.DiscountID == "" {
		return NewTransformError(rd.Name(), "validate", "discount id cannot be empty", nil)
	}
	for _, sel := range base.Discounts {
		if sel.DiscountID == rd.DiscountID {
			return nil
		}
	}
	return NewTransformError(rd.Name(), "validate", fmt.Sprintf("discount %s is not selected", rd.DiscountID), nil)
}

func (rd *RemoveDiscount) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)
	kept := modified.Discounts[:0]
	for _, sel := range modified.Discounts {
		if sel.DiscountID != rd.DiscountID {
			kept = append(kept, sel)
		}
	}
	modified.Discounts = kept
	return modified, nil
}

// ClearDiscounts removes every selected discount
type ClearDiscounts struct{}

func (cd *ClearDiscounts) Name() string {
	return "clear_discounts"
}

func (cd *ClearDiscounts) Description() string {
	return "Remove todos os descontos"
}

func (cd *ClearDiscounts) Validate(calculation.QuoteRequest, *domain.ReferenceData) error {
	return nil
}

func (cd *ClearDiscounts) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)
	modified.Discounts = []domain.SelectedDiscount{}
	return modified, nil
}
