package calculation

import (
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
)

// Tier boundaries are inclusive on the lower tier: 20% is automatic, 50% is coordinator.
var (
	AutomaticApprovalLimit   = decimal.NewFromInt(20)
	CoordinatorApprovalLimit = decimal.NewFromInt(50)
)

var approvalDescriptions = map[domain.ApprovalTier]string{
	domain.ApprovalAutomatic:   "Aprovação automática",
	domain.ApprovalCoordinator: "Requer aprovação da coordenação",
	domain.ApprovalDirector:    "Requer aprovação da diretoria",
}

// ClassifyApproval maps a total discount percentage to the sign-off it requires
func ClassifyApproval(totalPercentage decimal.Decimal) domain.ApprovalLevel {
	tier := domain.ApprovalDirector
	switch {
	case totalPercentage.LessThanOrEqual(AutomaticApprovalLimit):
		tier = domain.ApprovalAutomatic
	case totalPercentage.LessThanOrEqual(CoordinatorApprovalLimit):
		tier = domain.ApprovalCoordinator
	}
	return domain.ApprovalLevel{Level: tier, Description: approvalDescriptions[tier]}
}
