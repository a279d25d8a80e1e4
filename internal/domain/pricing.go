package domain

import (
	"github.com/shopspring/decimal"
)

// SelectedDiscount is an operator's choice of a catalog discount and the percentage applied
type SelectedDiscount struct {
	DiscountID        string          `yaml:"discount_id" json:"discountId"`
	AppliedPercentage decimal.Decimal `yaml:"applied_percentage" json:"appliedPercentage"`
}

// AppliedDiscount is a selection that passed validation and contributes to the totals
type AppliedDiscount struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Value      decimal.Decimal `json:"value"`
}

// IgnoredDiscount is a selection excluded from the totals, kept for diagnostics
type IgnoredDiscount struct {
	DiscountID string          `json:"discountId"`
	Percentage decimal.Decimal `json:"percentage"`
	Reason     string          `json:"reason"`
}

// PricingResult is recreated on every recompute and never patched in place
type PricingResult struct {
	BaseValue               decimal.Decimal   `json:"baseValue"`
	Discounts               []AppliedDiscount `json:"discounts"`
	Ignored                 []IgnoredDiscount `json:"ignored,omitempty"`
	TotalDiscountPercentage decimal.Decimal   `json:"totalDiscountPercentage"`
	TotalDiscountValue      decimal.Decimal   `json:"totalDiscountValue"`
	FinalValue              decimal.Decimal   `json:"finalValue"`
	IsValid                 bool              `json:"isValid"`
	ValidationErrors        []string          `json:"validationErrors"`
	Warnings                []string          `json:"warnings"`
}

// CapCheck is the CAP validator's verdict for a pricing pass
type CapCheck struct {
	CapMaximum   decimal.Decimal `json:"capMaximum"`
	CapUtilized  decimal.Decimal `json:"capUtilized"`
	CapAvailable decimal.Decimal `json:"capAvailable"`
	Exceeded     bool            `json:"exceeded"`
}

// ApprovalTier is the level of human sign-off a discount combination needs
type ApprovalTier string

const (
	ApprovalAutomatic   ApprovalTier = "automatic"
	ApprovalCoordinator ApprovalTier = "coordinator"
	ApprovalDirector    ApprovalTier = "director"
)

// Rank orders tiers so callers can compare them
func (t ApprovalTier) Rank() int {
	switch t {
	case ApprovalAutomatic:
		return 0
	case ApprovalCoordinator:
		return 1
	case ApprovalDirector:
		return 2
	default:
		return -1
	}
}

// ApprovalLevel pairs a tier with its user-facing description
type ApprovalLevel struct {
	Level       ApprovalTier `json:"level"`
	Description string       `json:"description"`
}

// AnnualSummary spreads the discounted monthly value over the school year
type AnnualSummary struct {
	Installments   int             `json:"installments"`
	MonthlyValue   decimal.Decimal `json:"monthlyValue"`
	AnnualTuition  decimal.Decimal `json:"annualTuition"`
	MaterialValue  decimal.Decimal `json:"materialValue"`
	AnnualTotal    decimal.Decimal `json:"annualTotal"`
	AnnualDiscount decimal.Decimal `json:"annualDiscount"`
}

// Quote is the atomically adopted output of one derive pass
type Quote struct {
	Base     BaseTuition   `json:"base"`
	TrackID  string        `json:"trackId,omitempty"`
	Pricing  PricingResult `json:"pricing"`
	Cap      CapCheck      `json:"cap"`
	Approval ApprovalLevel `json:"approval"`
	Annual   AnnualSummary `json:"annual"`
}
