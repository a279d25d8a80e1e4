package calculation

import (
	"testing"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testCatalog() domain.DiscountCatalog {
	return domain.MustDiscountCatalog([]domain.DiscountCatalogEntry{
		{ID: "pont", Code: "PONT", Name: "Pontualidade", Category: domain.CategoryEarlyPayment, MaxPercentage: decimal.NewFromInt(10), Active: true},
		{ID: "irm", Code: "IRM", Name: "Irmãos", Category: domain.CategorySibling, MaxPercentage: decimal.NewFromInt(15), Active: true},
		{ID: "com", Code: "COM", Name: "Comercial", Category: domain.CategoryCommercial, MaxPercentage: decimal.NewFromInt(60), Active: true},
		{ID: "bolsa", Code: "BI", Name: "Bolsa integral", Category: domain.CategoryFullScholarship, MaxPercentage: decimal.NewFromInt(100), Active: true},
		{ID: "old", Code: "OLD", Name: "Convênio encerrado", Category: domain.CategoryPartnership, MaxPercentage: decimal.NewFromInt(20), Active: false},
	})
}

func testReferenceData() *domain.ReferenceData {
	return &domain.ReferenceData{
		Discounts: testCatalog(),
		Series: []domain.Series{
			{ID: "ef1-1", Name: "1º ano EF", BaseMonthlyValue: decimal.NewFromInt(1000), MaterialValue: decimal.NewFromInt(800)},
			{ID: "em-3", Name: "3ª série EM", BaseMonthlyValue: decimal.RequireFromString("2150.50"), MaterialValue: decimal.NewFromInt(1200)},
		},
		Tracks: []domain.Track{
			{ID: "padrao", Name: "Padrão", CapMaximum: decimal.NewFromInt(50), Type: "regular"},
			{ID: "social", Name: "Social", CapMaximum: decimal.NewFromInt(100), Type: "social"},
			{ID: "especial", Name: "Especial", CapMaximum: decimal.NewFromInt(200), Type: "special"},
		},
	}
}

func sel(id string, pct float64) domain.SelectedDiscount {
	return domain.SelectedDiscount{DiscountID: id, AppliedPercentage: decimal.NewFromFloat(pct)}
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}
