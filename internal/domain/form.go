package domain

import (
	"time"
)

// Student holds the identity step data
type Student struct {
	Name      string    `yaml:"name" json:"name" validate:"required,min=3,max=120"`
	CPF       string    `yaml:"cpf" json:"cpf" validate:"required,cpf"`
	BirthDate time.Time `yaml:"birth_date" json:"birthDate" validate:"required"`
	Gender    string    `yaml:"gender,omitempty" json:"gender,omitempty" validate:"omitempty,oneof=F M O"`
	Siblings  int       `yaml:"siblings,omitempty" json:"siblings,omitempty" validate:"gte=0,lte=10"`
}

// Guardian is a parent or legal guardian; at least one must be financially responsible
type Guardian struct {
	Name                 string `yaml:"name" json:"name" validate:"required,min=3,max=120"`
	CPF                  string `yaml:"cpf" json:"cpf" validate:"required,cpf"`
	Relationship         string `yaml:"relationship" json:"relationship" validate:"required,oneof=mae pai avo tio responsavel outro"`
	Email                string `yaml:"email" json:"email" validate:"required,email"`
	Phone                string `yaml:"phone" json:"phone" validate:"required,phone_br"`
	FinancialResponsible bool   `yaml:"financial_responsible" json:"financialResponsible"`
	SchoolEmployee       bool   `yaml:"school_employee,omitempty" json:"schoolEmployee,omitempty"`
}

// Address is the family's residential address
type Address struct {
	CEP          string `yaml:"cep" json:"cep" validate:"required,cep"`
	Street       string `yaml:"street" json:"street" validate:"required"`
	Number       string `yaml:"number" json:"number" validate:"required,max=10"`
	Complement   string `yaml:"complement,omitempty" json:"complement,omitempty" validate:"max=60"`
	Neighborhood string `yaml:"neighborhood" json:"neighborhood" validate:"required"`
	City         string `yaml:"city" json:"city" validate:"required"`
	State        string `yaml:"state" json:"state" validate:"required,uf"`
}

// Academic selects what the student enrolls in; SeriesID and TrackID drive pricing
type Academic struct {
	SeriesID       string `yaml:"series_id" json:"seriesId" validate:"required"`
	TrackID        string `yaml:"track_id" json:"trackId" validate:"required"`
	SchoolYear     int    `yaml:"school_year" json:"schoolYear" validate:"required,gte=2000,lte=2100"`
	Shift          string `yaml:"shift" json:"shift" validate:"required,oneof=manha tarde integral"`
	PreviousSchool string `yaml:"previous_school,omitempty" json:"previousSchool,omitempty" validate:"max=120"`
}

// Review is the final confirmation step
type Review struct {
	Notes     string `yaml:"notes,omitempty" json:"notes,omitempty" validate:"max=1000"`
	Confirmed bool   `yaml:"confirmed" json:"confirmed"`
}

// FormSnapshot aggregates every step's data. It is owned by exactly one wizard.
type FormSnapshot struct {
	Student     Student            `yaml:"student" json:"student"`
	Guardians   []Guardian         `yaml:"guardians" json:"guardians"`
	Address     Address            `yaml:"address" json:"address"`
	Academic    Academic           `yaml:"academic" json:"academic"`
	Discounts   []SelectedDiscount `yaml:"discounts" json:"discounts"`
	Review      Review             `yaml:"review" json:"review"`
	CurrentStep int                `yaml:"-" json:"currentStep"`
}

// DefaultFormSnapshot returns the empty snapshot a fresh intake starts from
func DefaultFormSnapshot() FormSnapshot {
	return FormSnapshot{
		Guardians: []Guardian{},
		Discounts: []SelectedDiscount{},
	}
}

// DeepCopy returns a snapshot that shares no slices with the receiver
func (s FormSnapshot) DeepCopy() FormSnapshot {
	copied := s
	copied.Guardians = append([]Guardian{}, s.Guardians...)
	copied.Discounts = append([]SelectedDiscount{}, s.Discounts...)
	return copied
}

// FinancialResponsible returns the first guardian flagged as financially responsible
func (s FormSnapshot) FinancialResponsible() (Guardian, bool) {
	for _, g := range s.Guardians {
		if g.FinancialResponsible {
			return g, true
		}
	}
	return Guardian{}, false
}

// SchoolAgeCutoff is the date a student's age is measured at for a school
// year: March 31, the enrollment age cutoff.
func SchoolAgeCutoff(schoolYear int) time.Time {
	return time.Date(schoolYear, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// Age calculates the student's age at a given date
func (s Student) Age(atDate time.Time) int {
	if s.BirthDate.IsZero() {
		return 0
	}
	age := atDate.Year() - s.BirthDate.Year()
	if atDate.Month() < s.BirthDate.Month() ||
		(atDate.Month() == s.BirthDate.Month() && atDate.Day() < s.BirthDate.Day()) {
		age--
	}
	return age
}
