package wizard

import (
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_RequiredFields(t *testing.T) {
	gate := NewGate()
	empty := domain.DefaultFormSnapshot()
	full := validSnapshot()

	testCases := []struct {
		step    StepID
		missing []string
	}{
		{StepStudent, []string{"name", "cpf", "birth_date"}},
		{StepGuardians, []string{"guardians"}},
		{StepAddress, []string{"cep", "street", "number", "neighborhood", "city", "state"}},
		{StepAcademic, []string{"series_id", "track_id", "school_year", "shift"}},
		{StepDiscounts, []string{}},
		{StepReview, []string{"confirmed"}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.step), func(t *testing.T) {
			check := gate.RequiredFields(tc.step, empty)
			assert.Equal(t, len(tc.missing) == 0, check.OK)
			assert.Equal(t, tc.missing, check.MissingFields)

			check = gate.RequiredFields(tc.step, full)
			assert.True(t, check.OK)
			assert.Empty(t, check.MissingFields)
		})
	}
}

func TestGate_RequiredFields_PerGuardian(t *testing.T) {
	snapshot := validSnapshot()
	snapshot.Guardians = append(snapshot.Guardians, domain.Guardian{Name: "José"})

	check := NewGate().RequiredFields(StepGuardians, snapshot)
	assert.False(t, check.OK)
	assert.Equal(t, []string{"guardians[1].cpf", "guardians[1].relationship", "guardians[1].email", "guardians[1].phone"}, check.MissingFields)
}

func TestGate_ValidateFullSnapshot(t *testing.T) {
	failures := NewGate().ValidateAll(validSnapshot(), testReferenceData())
	assert.Empty(t, failures)
}

func TestGate_Validate(t *testing.T) {
	testCases := []struct {
		desc     string
		step     StepID
		mutate   func(*domain.FormSnapshot)
		refs     *domain.ReferenceData
		contains string
	}{
		{
			desc:     "invalid student CPF",
			step:     StepStudent,
			mutate:   func(s *domain.FormSnapshot) { s.Student.CPF = "529.982.247-24" },
			contains: "CPF: CPF inválido",
		},
		{
			desc:     "short student name",
			step:     StepStudent,
			mutate:   func(s *domain.FormSnapshot) { s.Student.Name = "Al" },
			contains: "nome: deve ter ao menos 3 caracteres",
		},
		{
			desc:     "birth date in the future",
			step:     StepStudent,
			mutate:   func(s *domain.FormSnapshot) { s.Student.BirthDate = time.Now().AddDate(1, 0, 0) },
			contains: "não pode estar no futuro",
		},
		{
			desc:     "invalid guardian email",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians[0].Email = "ana-at-example" },
			contains: "responsável 1 e-mail: e-mail inválido",
		},
		{
			desc:     "invalid guardian phone",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians[0].Phone = "123" },
			contains: "telefone inválido",
		},
		{
			desc:     "unknown relationship",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians[0].Relationship = "vizinho" },
			contains: "parentesco: deve ser um de: mae, pai",
		},
		{
			desc:     "no financial responsible",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians[0].FinancialResponsible = false },
			contains: "indique um responsável financeiro",
		},
		{
			desc:     "guardian reuses the student CPF",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians[0].CPF = studentCPF },
			contains: "não pode ser igual ao CPF do aluno",
		},
		{
			desc: "two guardians with one CPF",
			step: StepGuardians,
			mutate: func(s *domain.FormSnapshot) {
				second := s.Guardians[0]
				second.Relationship = "pai"
				s.Guardians = append(s.Guardians, second)
			},
			contains: "repete o CPF do responsável 1",
		},
		{
			desc:     "no guardians",
			step:     StepGuardians,
			mutate:   func(s *domain.FormSnapshot) { s.Guardians = nil },
			contains: "informe ao menos um responsável",
		},
		{
			desc:     "malformed CEP",
			step:     StepAddress,
			mutate:   func(s *domain.FormSnapshot) { s.Address.CEP = "1310-100" },
			contains: "CEP: CEP inválido",
		},
		{
			desc:     "unknown state",
			step:     StepAddress,
			mutate:   func(s *domain.FormSnapshot) { s.Address.State = "XX" },
			contains: "UF: UF inválida",
		},
		{
			desc:     "unknown series",
			step:     StepAcademic,
			mutate:   func(s *domain.FormSnapshot) { s.Academic.SeriesID = "em-9" },
			contains: "série: em-9 não existe no catálogo",
		},
		{
			desc:     "unknown track",
			step:     StepAcademic,
			mutate:   func(s *domain.FormSnapshot) { s.Academic.TrackID = "vip" },
			contains: "trilha: vip não existe no catálogo",
		},
		{
			desc:     "academic without reference data",
			step:     StepAcademic,
			mutate:   func(s *domain.FormSnapshot) {},
			refs:     &domain.ReferenceData{},
			contains: "não existe no catálogo",
		},
		{
			desc:     "unresolved discount",
			step:     StepDiscounts,
			mutate:   func(s *domain.FormSnapshot) { s.Discounts[0].DiscountID = "nope" },
			contains: "desconto nope não encontrado",
		},
		{
			desc:     "inactive discount",
			step:     StepDiscounts,
			mutate:   func(s *domain.FormSnapshot) { s.Discounts[0].DiscountID = "old" },
			contains: "está inativo",
		},
		{
			desc:     "review not confirmed",
			step:     StepReview,
			mutate:   func(s *domain.FormSnapshot) { s.Review.Confirmed = false },
			contains: "confirme os dados",
		},
	}

	gate := NewGate()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			snapshot := validSnapshot()
			tc.mutate(&snapshot)
			refs := tc.refs
			if refs == nil {
				refs = testReferenceData()
			}

			check := gate.Validate(tc.step, snapshot, refs)
			assert.False(t, check.OK)
			require.NotEmpty(t, check.Errors)
			assert.Contains(t, strings.Join(check.Errors, " | "), tc.contains)
		})
	}
}

func TestGate_AcceptsFormattingVariants(t *testing.T) {
	snapshot := validSnapshot()
	snapshot.Student.CPF = "52998224725"
	snapshot.Guardians[0].Phone = "+55 11 3456-7890"
	snapshot.Address.CEP = "01310100"
	snapshot.Address.State = "sp"

	assert.Empty(t, NewGate().ValidateAll(snapshot, testReferenceData()))
}

func TestGate_CanLeave(t *testing.T) {
	gate := NewGate()

	t.Run("missing fields", func(t *testing.T) {
		result := gate.CanLeave(StepStudent, GuardContext{Snapshot: domain.DefaultFormSnapshot()})
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "nome, CPF, data de nascimento")
		assert.ErrorIs(t, result.Error(), domain.ErrStepBlocked)
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		result := gate.CanLeave(StepStudent, GuardContext{
			Snapshot:   validSnapshot(),
			Identifier: IdentifierState{Value: domain.NormalizeCPF(studentCPF), Status: IdentifierDuplicate},
		})
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "529.982.247-25 já possui matrícula cadastrada")
	})

	t.Run("duplicate flag for a different CPF is ignored", func(t *testing.T) {
		result := gate.CanLeave(StepStudent, GuardContext{
			Snapshot:   validSnapshot(),
			Identifier: IdentifierState{Value: domain.NormalizeCPF(otherCPF), Status: IdentifierDuplicate},
		})
		assert.True(t, result.Allowed)
	})

	t.Run("unknown identifier does not block", func(t *testing.T) {
		result := gate.CanLeave(StepStudent, GuardContext{
			Snapshot:   validSnapshot(),
			Identifier: IdentifierState{Value: domain.NormalizeCPF(studentCPF), Status: IdentifierUnknown},
		})
		assert.True(t, result.Allowed)
		assert.NoError(t, result.Error())
	})

	t.Run("invalid pricing blocks the discount step", func(t *testing.T) {
		result := gate.CanLeave(StepDiscounts, GuardContext{
			Snapshot: validSnapshot(),
			Pricing:  domain.PricingResult{IsValid: false, ValidationErrors: []string{"CAP excedido: 60% de 50% utilizado"}},
		})
		assert.False(t, result.Allowed)
		assert.Equal(t, "CAP excedido: 60% de 50% utilizado", result.Reason)
	})

	t.Run("other steps have no cross-cutting guard", func(t *testing.T) {
		result := gate.CanLeave(StepAddress, GuardContext{Snapshot: validSnapshot()})
		assert.True(t, result.Allowed)
	})
}

func TestGate_UnknownStep(t *testing.T) {
	gate := NewGate()
	assert.False(t, gate.RequiredFields("payment", validSnapshot()).OK)
	assert.False(t, gate.Validate("payment", validSnapshot(), testReferenceData()).OK)
}

func TestStepIndexAndTitle(t *testing.T) {
	assert.Equal(t, 0, StepIndex(StepStudent))
	assert.Equal(t, len(Steps)-1, StepIndex(StepReview))
	assert.Equal(t, -1, StepIndex("payment"))
	assert.Equal(t, "Descontos", StepDiscounts.Title())
}
