package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/wizard"
	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006"

// field is one labeled text input bound to a snapshot attribute by key
type field struct {
	key   string
	label string
	input textinput.Model
}

func newField(key, label, placeholder string, limit int) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	in.Width = 40
	return field{key: key, label: label, input: in}
}

// stepForm holds the inputs of one wizard step
type stepForm struct {
	step   wizard.StepID
	fields []field
	focus  int
}

func (f *stepForm) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

func (f *stepForm) set(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
}

// focusField blurs every input and focuses the one at index i
func (f *stepForm) focusField(i int) {
	if len(f.fields) == 0 {
		return
	}
	if i < 0 {
		i = len(f.fields) - 1
	}
	if i >= len(f.fields) {
		i = 0
	}
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = i
	f.fields[i].input.Focus()
}

func (f *stepForm) blur() {
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
}

func newStepForms(refs *domain.ReferenceData) map[wizard.StepID]*stepForm {
	return map[wizard.StepID]*stepForm{
		wizard.StepStudent: {step: wizard.StepStudent, fields: []field{
			newField("name", "Nome completo", "Maria Clara Souza", 120),
			newField("cpf", "CPF", "000.000.000-00", 14),
			newField("birth_date", "Data de nascimento", "DD/MM/AAAA", 10),
			newField("gender", "Sexo (F/M/O)", "", 1),
			newField("siblings", "Irmãos matriculados", "0", 2),
		}},
		wizard.StepGuardians: {step: wizard.StepGuardians, fields: []field{
			newField("name", "Nome do responsável", "", 120),
			newField("cpf", "CPF", "000.000.000-00", 14),
			newField("relationship", "Parentesco", "mae, pai, avo, tio, responsavel, outro", 12),
			newField("email", "E-mail", "", 120),
			newField("phone", "Telefone", "(11) 98765-4321", 20),
			newField("financial_responsible", "Responsável financeiro (s/n)", "s", 3),
			newField("school_employee", "Funcionário da escola (s/n)", "n", 3),
		}},
		wizard.StepAddress: {step: wizard.StepAddress, fields: []field{
			newField("cep", "CEP", "00000-000", 9),
			newField("street", "Logradouro", "", 120),
			newField("number", "Número", "", 10),
			newField("complement", "Complemento", "", 60),
			newField("neighborhood", "Bairro", "", 60),
			newField("city", "Cidade", "", 60),
			newField("state", "UF", "SP", 2),
		}},
		wizard.StepAcademic: {step: wizard.StepAcademic, fields: []field{
			newField("series_id", "Série", seriesHint(refs), 20),
			newField("track_id", "Trilha", trackHint(refs), 20),
			newField("school_year", "Ano letivo", strconv.Itoa(time.Now().Year()+1), 4),
			newField("shift", "Turno", "manha, tarde, integral", 8),
			newField("previous_school", "Escola anterior", "", 120),
		}},
		wizard.StepDiscounts: newDiscountForm(refs),
		wizard.StepReview: {step: wizard.StepReview, fields: []field{
			newField("notes", "Observações", "", 1000),
			newField("confirmed", "Confirmo os dados (s/n)", "n", 3),
		}},
	}
}

// newDiscountForm has one percentage input per active catalog discount;
// an empty input means the discount is not selected.
func newDiscountForm(refs *domain.ReferenceData) *stepForm {
	form := &stepForm{step: wizard.StepDiscounts}
	if refs == nil {
		return form
	}
	for _, entry := range refs.Discounts.ActiveEntries() {
		label := fmt.Sprintf("%s %s (máx %s%%)", entry.Code, entry.Name, entry.MaxPercentage.String())
		form.fields = append(form.fields, newField(entry.ID, label, "", 6))
	}
	return form
}

func seriesHint(refs *domain.ReferenceData) string {
	if refs == nil {
		return ""
	}
	ids := make([]string, 0, len(refs.Series))
	for _, s := range refs.SortedSeries() {
		ids = append(ids, s.ID)
	}
	return strings.Join(ids, ", ")
}

func trackHint(refs *domain.ReferenceData) string {
	if refs == nil {
		return ""
	}
	ids := make([]string, 0, len(refs.Tracks))
	for _, t := range refs.Tracks {
		ids = append(ids, t.ID)
	}
	return strings.Join(ids, ", ")
}

// apply parses the form into the wizard. Unparseable values are left zero and
// reported; the wizard's own gate reports everything else.
func (f *stepForm) apply(w *wizard.Wizard) (string, error) {
	switch f.step {
	case wizard.StepStudent:
		var problems []string
		birth, err := parseDate(f.value("birth_date"))
		if err != nil {
			problems = append(problems, err.Error())
		}
		siblings, err := parseInt(f.value("siblings"))
		if err != nil {
			problems = append(problems, "irmãos: informe um número")
		}
		return strings.Join(problems, "; "), w.SetStudent(domain.Student{
			Name:      f.value("name"),
			CPF:       f.value("cpf"),
			BirthDate: birth,
			Gender:    strings.ToUpper(f.value("gender")),
			Siblings:  siblings,
		})

	case wizard.StepGuardians:
		guardian := domain.Guardian{
			Name:                 f.value("name"),
			CPF:                  f.value("cpf"),
			Relationship:         strings.ToLower(f.value("relationship")),
			Email:                f.value("email"),
			Phone:                f.value("phone"),
			FinancialResponsible: parseYes(f.value("financial_responsible")),
			SchoolEmployee:       parseYes(f.value("school_employee")),
		}
		guardians := w.Snapshot().Guardians
		if len(guardians) == 0 {
			guardians = []domain.Guardian{guardian}
		} else {
			guardians[0] = guardian
		}
		if guardianEmpty(guardian) && len(guardians) == 1 {
			guardians = nil
		}
		return "", w.SetGuardians(guardians)

	case wizard.StepAddress:
		return "", w.SetAddress(domain.Address{
			CEP:          f.value("cep"),
			Street:       f.value("street"),
			Number:       f.value("number"),
			Complement:   f.value("complement"),
			Neighborhood: f.value("neighborhood"),
			City:         f.value("city"),
			State:        strings.ToUpper(f.value("state")),
		})

	case wizard.StepAcademic:
		problem := ""
		year, err := parseInt(f.value("school_year"))
		if err != nil {
			problem = "ano letivo: informe um número"
		}
		return problem, w.SetAcademic(domain.Academic{
			SeriesID:       f.value("series_id"),
			TrackID:        f.value("track_id"),
			SchoolYear:     year,
			Shift:          strings.ToLower(f.value("shift")),
			PreviousSchool: f.value("previous_school"),
		})

	case wizard.StepDiscounts:
		var problems []string
		selections := []domain.SelectedDiscount{}
		for _, fl := range f.fields {
			raw := strings.TrimSpace(strings.ReplaceAll(fl.input.Value(), ",", "."))
			if raw == "" {
				continue
			}
			pct, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: percentual inválido", fl.label))
				continue
			}
			selections = append(selections, domain.SelectedDiscount{DiscountID: fl.key, AppliedPercentage: pct})
		}
		return strings.Join(problems, "; "), w.SetDiscounts(selections)

	case wizard.StepReview:
		return "", w.SetReview(domain.Review{
			Notes:     f.value("notes"),
			Confirmed: parseYes(f.value("confirmed")),
		})
	}
	return "", nil
}

// fill copies the snapshot into the form inputs
func (f *stepForm) fill(s domain.FormSnapshot) {
	switch f.step {
	case wizard.StepStudent:
		f.set("name", s.Student.Name)
		f.set("cpf", s.Student.CPF)
		if !s.Student.BirthDate.IsZero() {
			f.set("birth_date", s.Student.BirthDate.Format(dateLayout))
		}
		f.set("gender", s.Student.Gender)
		if s.Student.Siblings > 0 {
			f.set("siblings", strconv.Itoa(s.Student.Siblings))
		}
	case wizard.StepGuardians:
		if len(s.Guardians) == 0 {
			return
		}
		g := s.Guardians[0]
		f.set("name", g.Name)
		f.set("cpf", g.CPF)
		f.set("relationship", g.Relationship)
		f.set("email", g.Email)
		f.set("phone", g.Phone)
		f.set("financial_responsible", yesNo(g.FinancialResponsible))
		f.set("school_employee", yesNo(g.SchoolEmployee))
	case wizard.StepAddress:
		f.set("cep", s.Address.CEP)
		f.set("street", s.Address.Street)
		f.set("number", s.Address.Number)
		f.set("complement", s.Address.Complement)
		f.set("neighborhood", s.Address.Neighborhood)
		f.set("city", s.Address.City)
		f.set("state", s.Address.State)
	case wizard.StepAcademic:
		f.set("series_id", s.Academic.SeriesID)
		f.set("track_id", s.Academic.TrackID)
		if s.Academic.SchoolYear > 0 {
			f.set("school_year", strconv.Itoa(s.Academic.SchoolYear))
		}
		f.set("shift", s.Academic.Shift)
		f.set("previous_school", s.Academic.PreviousSchool)
	case wizard.StepDiscounts:
		for _, sel := range s.Discounts {
			f.set(sel.DiscountID, sel.AppliedPercentage.String())
		}
	case wizard.StepReview:
		f.set("notes", s.Review.Notes)
		f.set("confirmed", yesNo(s.Review.Confirmed))
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("data de nascimento: use %s", "DD/MM/AAAA")
	}
	return t, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseYes(raw string) bool {
	switch strings.ToLower(raw) {
	case "s", "sim", "y", "yes", "x":
		return true
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "s"
	}
	return "n"
}

func guardianEmpty(g domain.Guardian) bool {
	return g.Name == "" && g.CPF == "" && g.Relationship == "" && g.Email == "" && g.Phone == ""
}
