package calculation

import (
	"testing"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyApproval_Boundaries(t *testing.T) {
	testCases := []struct {
		percentage string
		expected   domain.ApprovalTier
	}{
		{"0", domain.ApprovalAutomatic},
		{"19.99", domain.ApprovalAutomatic},
		{"20", domain.ApprovalAutomatic},
		{"20.01", domain.ApprovalCoordinator},
		{"35", domain.ApprovalCoordinator},
		{"50", domain.ApprovalCoordinator},
		{"50.0001", domain.ApprovalDirector},
		{"100", domain.ApprovalDirector},
		{"160", domain.ApprovalDirector},
	}

	for _, tc := range testCases {
		t.Run(tc.percentage, func(t *testing.T) {
			level := ClassifyApproval(decimal.RequireFromString(tc.percentage))
			assert.Equal(t, tc.expected, level.Level)
			assert.NotEmpty(t, level.Description)
		})
	}
}

func TestClassifyApproval_Monotonic(t *testing.T) {
	previous := -1
	for p := decimal.Zero; p.LessThanOrEqual(decimal.NewFromInt(120)); p = p.Add(decimal.RequireFromString("0.25")) {
		rank := ClassifyApproval(p).Level.Rank()
		assert.GreaterOrEqual(t, rank, previous, "tier decreased at %s%%", p.String())
		previous = rank
	}
}
