package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/wizard"
)

// Model is the intake front end. All intake state lives in the wizard; the
// model only holds inputs and presentation state.
type Model struct {
	wizard         *wizard.Wizard
	source         refdata.Source
	loadTimeout    time.Duration
	initialLoadCmd bool

	forms   map[wizard.StepID]*stepForm
	keys    keyMap
	spinner spinner.Model

	// Terminal dimensions
	width  int
	height int

	// Feedback for the last action and the last parse problem
	status     string
	inputIssue string
}

// NewModel creates an intake model over w. src is fetched on Init; a nil src
// means the wizard already holds reference data.
func NewModel(w *wizard.Wizard, src refdata.Source, loadTimeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle

	m := Model{
		wizard:         w,
		source:         src,
		loadTimeout:    loadTimeout,
		initialLoadCmd: src != nil,
		keys:           defaultKeyMap(),
		spinner:        s,
		width:          100,
		height:         30,
	}
	m.rebuildForms()
	return m
}

// Init starts the spinner and the reference data fetch
func (m Model) Init() tea.Cmd {
	if !m.initialLoadCmd {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, loadReferenceCmd(m.wizard, m.source, m.loadTimeout))
}

// rebuildForms recreates every input from the catalogs and fills them from the snapshot
func (m *Model) rebuildForms() {
	snapshot := m.wizard.Snapshot()
	m.forms = newStepForms(m.wizard.ReferenceData())
	for _, form := range m.forms {
		form.fill(snapshot)
	}
	m.focusCurrent()
}

func (m *Model) currentForm() *stepForm {
	return m.forms[m.wizard.State().StepID]
}

func (m *Model) focusCurrent() {
	current := m.wizard.State().StepID
	for id, form := range m.forms {
		if id == current {
			form.focusField(form.focus)
		} else {
			form.blur()
		}
	}
}

// applyCurrent pushes the current step's inputs into the wizard
func (m *Model) applyCurrent() {
	form := m.currentForm()
	if form == nil {
		return
	}
	issue, err := form.apply(m.wizard)
	m.inputIssue = issue
	if err != nil {
		m.status = err.Error()
	}
}

func identifierLine(state wizard.IdentifierState, spin string) string {
	switch state.Status {
	case wizard.IdentifierPending:
		return spin + " verificando CPF..."
	case wizard.IdentifierAvailable:
		return SuccessStyle.Render("✓ CPF disponível")
	case wizard.IdentifierDuplicate:
		return ErrorStyle.Render("✗ " + state.Message)
	case wizard.IdentifierUnknown:
		return WarningStyle.Render("! " + state.Message)
	default:
		return ""
	}
}

func stepStatus(state wizard.WizardState, index int) string {
	step := wizard.Steps[index]
	switch {
	case len(state.StepErrors[step]) > 0:
		return "blocked"
	case index == state.CurrentStep:
		return "current"
	case index < state.CurrentStep:
		return "done"
	default:
		return "pending"
	}
}

func referenceSummary(refs *domain.ReferenceData) string {
	if refs == nil {
		return ""
	}
	return SubtitleStyle.Render(fmt.Sprintf("catálogos: %d descontos, %d séries, %d trilhas",
		refs.Discounts.Len(), len(refs.Series), len(refs.Tracks)))
}
