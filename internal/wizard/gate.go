// Package wizard drives the multi-step enrollment intake: the step validation
// gate, the navigation state machine, the debounced identifier check and the
// idempotent submission.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// StepID names an intake step
type StepID string

const (
	StepStudent   StepID = "student"
	StepGuardians StepID = "guardians"
	StepAddress   StepID = "address"
	StepAcademic  StepID = "academic"
	StepDiscounts StepID = "discounts"
	StepReview    StepID = "review"
)

// Steps is the intake order
var Steps = []StepID{StepStudent, StepGuardians, StepAddress, StepAcademic, StepDiscounts, StepReview}

var stepTitles = map[StepID]string{
	StepStudent:   "Dados do aluno",
	StepGuardians: "Responsáveis",
	StepAddress:   "Endereço",
	StepAcademic:  "Dados acadêmicos",
	StepDiscounts: "Descontos",
	StepReview:    "Revisão",
}

// Title returns the step heading shown to the operator
func (s StepID) Title() string {
	if title, ok := stepTitles[s]; ok {
		return title
	}
	return string(s)
}

// StepIndex returns the position of id in Steps, or -1
func StepIndex(id StepID) int {
	for i, s := range Steps {
		if s == id {
			return i
		}
	}
	return -1
}

// FieldCheck is the cheap presence-only check
type FieldCheck struct {
	OK            bool     `json:"ok"`
	MissingFields []string `json:"missingFields"`
}

// DataCheck is the full schema-level validation
type DataCheck struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// GuardResult is the outcome of a navigation guard
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrStepBlocked, r.Reason)
}

// GuardContext is what the cross-cutting guards read besides the snapshot
type GuardContext struct {
	Snapshot   domain.FormSnapshot
	Pricing    domain.PricingResult
	Identifier IdentifierState
}

type stepValidator struct {
	required func(s domain.FormSnapshot) []string
	validate func(g *Gate, s domain.FormSnapshot, refs *domain.ReferenceData) []string
}

type guardFunc func(gc GuardContext) GuardResult

// Gate answers, per step, whether required fields are present, whether the step
// data is valid, and whether navigation may leave the step.
type Gate struct {
	validate   *validator.Validate
	validators map[StepID]stepValidator
	guards     map[StepID]guardFunc
	Now        func() time.Time
}

// NewGate creates a gate with the standard intake steps
func NewGate() *Gate {
	return &Gate{
		validate: newValidator(),
		validators: map[StepID]stepValidator{
			StepStudent:   {required: studentRequired, validate: validateStudent},
			StepGuardians: {required: guardiansRequired, validate: validateGuardians},
			StepAddress:   {required: addressRequired, validate: validateAddress},
			StepAcademic:  {required: academicRequired, validate: validateAcademic},
			StepDiscounts: {required: func(domain.FormSnapshot) []string { return nil }, validate: validateDiscounts},
			StepReview:    {required: reviewRequired, validate: validateReview},
		},
		guards: map[StepID]guardFunc{
			StepStudent:   identifierGuard,
			StepDiscounts: pricingGuard,
		},
		Now: time.Now,
	}
}

// RequiredFields reports which required fields of step are still empty
func (g *Gate) RequiredFields(step StepID, snapshot domain.FormSnapshot) FieldCheck {
	sv, ok := g.validators[step]
	if !ok {
		return FieldCheck{OK: false, MissingFields: []string{"step"}}
	}
	missing := sv.required(snapshot)
	return FieldCheck{OK: len(missing) == 0, MissingFields: nonNil(missing)}
}

// Validate runs the full validation of step against the reference data
func (g *Gate) Validate(step StepID, snapshot domain.FormSnapshot, refs *domain.ReferenceData) DataCheck {
	sv, ok := g.validators[step]
	if !ok {
		return DataCheck{OK: false, Errors: []string{fmt.Sprintf("etapa desconhecida: %s", step)}}
	}
	errs := sv.validate(g, snapshot, refs)
	return DataCheck{OK: len(errs) == 0, Errors: nonNil(errs)}
}

// ValidateAll validates every step and returns the failures keyed by step
func (g *Gate) ValidateAll(snapshot domain.FormSnapshot, refs *domain.ReferenceData) map[StepID]DataCheck {
	failures := make(map[StepID]DataCheck)
	for _, step := range Steps {
		if check := g.Validate(step, snapshot, refs); !check.OK {
			failures[step] = check
		}
	}
	return failures
}

// CanLeave applies the forward-navigation rule for step: required fields
// present, then the step's cross-cutting guard if it has one.
func (g *Gate) CanLeave(step StepID, gc GuardContext) GuardResult {
	fields := g.RequiredFields(step, gc.Snapshot)
	if !fields.OK {
		return GuardResult{
			Allowed: false,
			Reason:  "preencha os campos obrigatórios: " + strings.Join(labels(fields.MissingFields), ", "),
		}
	}
	if guard, ok := g.guards[step]; ok {
		return guard(gc)
	}
	return GuardResult{Allowed: true}
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// identifierGuard blocks the student step while the CPF is flagged duplicate
func identifierGuard(gc GuardContext) GuardResult {
	if gc.Identifier.Status != IdentifierDuplicate {
		return GuardResult{Allowed: true}
	}
	if domain.NormalizeCPF(gc.Identifier.Value) != domain.NormalizeCPF(gc.Snapshot.Student.CPF) {
		return GuardResult{Allowed: true}
	}
	dup := &domain.DuplicateIdentifierError{Field: "CPF", Identifier: domain.FormatCPF(gc.Identifier.Value)}
	return GuardResult{Allowed: false, Reason: dup.Error()}
}

// pricingGuard blocks the discount step while the pricing result is invalid
func pricingGuard(gc GuardContext) GuardResult {
	if gc.Pricing.IsValid {
		return GuardResult{Allowed: true}
	}
	reason := strings.Join(gc.Pricing.ValidationErrors, "; ")
	if reason == "" {
		reason = "combinação de descontos inválida"
	}
	return GuardResult{Allowed: false, Reason: reason}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
