package wizard

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/matricula/internal/domain"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func studentRequired(s domain.FormSnapshot) []string {
	var missing []string
	if blank(s.Student.Name) {
		missing = append(missing, "name")
	}
	if blank(s.Student.CPF) {
		missing = append(missing, "cpf")
	}
	if s.Student.BirthDate.IsZero() {
		missing = append(missing, "birth_date")
	}
	return missing
}

func validateStudent(g *Gate, s domain.FormSnapshot, _ *domain.ReferenceData) []string {
	errs := structErrors(g.validate, s.Student, "")
	if !s.Student.BirthDate.IsZero() && s.Student.BirthDate.After(g.now()) {
		errs = append(errs, "data de nascimento: não pode estar no futuro")
	}
	return errs
}

func guardiansRequired(s domain.FormSnapshot) []string {
	if len(s.Guardians) == 0 {
		return []string{"guardians"}
	}
	var missing []string
	for i, guardian := range s.Guardians {
		prefix := fmt.Sprintf("guardians[%d].", i)
		if blank(guardian.Name) {
			missing = append(missing, prefix+"name")
		}
		if blank(guardian.CPF) {
			missing = append(missing, prefix+"cpf")
		}
		if blank(guardian.Relationship) {
			missing = append(missing, prefix+"relationship")
		}
		if blank(guardian.Email) {
			missing = append(missing, prefix+"email")
		}
		if blank(guardian.Phone) {
			missing = append(missing, prefix+"phone")
		}
	}
	return missing
}

func validateGuardians(g *Gate, s domain.FormSnapshot, _ *domain.ReferenceData) []string {
	if len(s.Guardians) == 0 {
		return []string{"responsáveis: informe ao menos um responsável"}
	}
	var errs []string
	seen := make(map[string]int, len(s.Guardians))
	for i, guardian := range s.Guardians {
		prefix := fmt.Sprintf("responsável %d ", i+1)
		errs = append(errs, structErrors(g.validate, guardian, prefix)...)

		cpf := domain.NormalizeCPF(guardian.CPF)
		if cpf == "" {
			continue
		}
		if first, dup := seen[cpf]; dup {
			errs = append(errs, fmt.Sprintf("%sCPF: repete o CPF do responsável %d", prefix, first+1))
		}
		seen[cpf] = i
		if cpf == domain.NormalizeCPF(s.Student.CPF) {
			errs = append(errs, prefix+"CPF: não pode ser igual ao CPF do aluno")
		}
	}
	if _, ok := s.FinancialResponsible(); !ok {
		errs = append(errs, "responsáveis: indique um responsável financeiro")
	}
	return errs
}

func addressRequired(s domain.FormSnapshot) []string {
	var missing []string
	a := s.Address
	for _, f := range []struct {
		name  string
		value string
	}{
		{"cep", a.CEP}, {"street", a.Street}, {"number", a.Number},
		{"neighborhood", a.Neighborhood}, {"city", a.City}, {"state", a.State},
	} {
		if blank(f.value) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func validateAddress(g *Gate, s domain.FormSnapshot, _ *domain.ReferenceData) []string {
	return structErrors(g.validate, s.Address, "")
}

func academicRequired(s domain.FormSnapshot) []string {
	var missing []string
	if blank(s.Academic.SeriesID) {
		missing = append(missing, "series_id")
	}
	if blank(s.Academic.TrackID) {
		missing = append(missing, "track_id")
	}
	if s.Academic.SchoolYear == 0 {
		missing = append(missing, "school_year")
	}
	if blank(s.Academic.Shift) {
		missing = append(missing, "shift")
	}
	return missing
}

func validateAcademic(g *Gate, s domain.FormSnapshot, refs *domain.ReferenceData) []string {
	errs := structErrors(g.validate, s.Academic, "")
	if refs == nil {
		return append(errs, "catálogos de referência indisponíveis")
	}
	if s.Academic.SeriesID != "" {
		if _, ok := refs.FindSeries(s.Academic.SeriesID); !ok {
			errs = append(errs, fmt.Sprintf("série: %s não existe no catálogo", s.Academic.SeriesID))
		}
	}
	if s.Academic.TrackID != "" {
		if _, ok := refs.FindTrack(s.Academic.TrackID); !ok {
			errs = append(errs, fmt.Sprintf("trilha: %s não existe no catálogo", s.Academic.TrackID))
		}
	}
	return errs
}

// validateDiscounts checks each selection resolves to an active entry within its
// maximum. Totals and CAP belong to the pricing result.
func validateDiscounts(_ *Gate, s domain.FormSnapshot, refs *domain.ReferenceData) []string {
	if len(s.Discounts) == 0 {
		return nil
	}
	if refs == nil {
		return []string{"catálogos de referência indisponíveis"}
	}
	var errs []string
	for _, sel := range s.Discounts {
		entry, ok := refs.Discounts.Lookup(sel.DiscountID)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("desconto %s não encontrado no catálogo", sel.DiscountID))
		case !entry.Active:
			errs = append(errs, fmt.Sprintf("desconto %s está inativo", entry.Code))
		case !sel.AppliedPercentage.IsPositive():
			errs = append(errs, fmt.Sprintf("desconto %s: percentual aplicado deve ser maior que zero", entry.Code))
		case sel.AppliedPercentage.GreaterThan(entry.MaxPercentage):
			errs = append(errs, fmt.Sprintf("desconto %s: desconto excede percentual máximo permitido", entry.Code))
		}
	}
	return errs
}

func reviewRequired(s domain.FormSnapshot) []string {
	if !s.Review.Confirmed {
		return []string{"confirmed"}
	}
	return nil
}

func validateReview(g *Gate, s domain.FormSnapshot, _ *domain.ReferenceData) []string {
	errs := structErrors(g.validate, s.Review, "")
	if !s.Review.Confirmed {
		errs = append(errs, "confirmação: confirme os dados antes de enviar")
	}
	return errs
}
