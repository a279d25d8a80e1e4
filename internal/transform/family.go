package transform

import (
	"fmt"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// SetTrack prices the request under another pricing track
type SetTrack struct {
	TrackID string
}

func (st *SetTrack) Name() string {
	return "set_track"
}

func (st *SetTrack) Description() string {
	return fmt.Sprintf("Usa a trilha %s", st.TrackID)
}

func (st *SetTrack) Validate(_ calculation.QuoteRequest, refs *domain.ReferenceData) error {
	if st.TrackID == "" {
		return NewTransformError(st.Name(), "validate", "track id cannot be empty", nil)
	}
	if refs == nil {
		return nil
	}
	if _, ok := refs.FindTrack(st.TrackID); !ok {
		return NewTransformError(st.Name(), "validate", fmt.Sprintf("track %s not found in catalog", st.TrackID), nil)
	}
	return nil
}

func (st *SetTrack) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)
	modified.TrackID = st.TrackID
	return modified, nil
}

// SetSiblings changes how many siblings the student has enrolled
type SetSiblings struct {
	Count int
}

func (ss *SetSiblings) Name() string {
	return "set_siblings"
}

func (ss *SetSiblings) Description() string {
	return fmt.Sprintf("Considera %d irmão(s) matriculado(s)", ss.Count)
}

func (ss *SetSiblings) Validate(calculation.QuoteRequest, *domain.ReferenceData) error {
	if ss.Count < 0 {
		return NewTransformError(ss.Name(), "validate", fmt.Sprintf("sibling count must be non-negative, got %d", ss.Count), nil)
	}
	return nil
}

func (ss *SetSiblings) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)
	modified.Siblings = ss.Count
	return modified, nil
}

// SetSchoolEmployee toggles whether a guardian works at the school
type SetSchoolEmployee struct {
	Employee bool
}

func (se *SetSchoolEmployee) Name() string {
	return "set_employee"
}

func (se *SetSchoolEmployee) Description() string {
	if se.Employee {
		return "Responsável é funcionário da escola"
	}
	return "Nenhum responsável é funcionário da escola"
}

func (se *SetSchoolEmployee) Validate(calculation.QuoteRequest, *domain.ReferenceData) error {
	return nil
}

func (se *SetSchoolEmployee) Apply(base calculation.QuoteRequest) (calculation.QuoteRequest, error) {
	modified := Clone(base)
	modified.SchoolEmployee = se.Employee
	return modified, nil
}
