package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/wizard"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReferenceLoadedMsg:
		if msg.Err != nil {
			m.status = "falha ao carregar catálogos: " + msg.Err.Error()
			return m, nil
		}
		m.status = ""
		m.rebuildForms()
		return m, nil

	case IdentifierCheckedMsg:
		switch {
		case msg.Err != nil:
			m.status = msg.Err.Error()
		case msg.Status == wizard.IdentifierUnknown:
			m.status = "não foi possível verificar o CPF agora"
		default:
			m.status = ""
		}
		return m, nil

	case SubmitCompleteMsg:
		var subErr *domain.SubmissionError
		switch {
		case msg.Err == nil:
			m.status = "matrícula registrada: " + msg.Receipt.EnrollmentID
		case errors.As(msg.Err, &subErr):
			m.status = "falha no envio; ctrl+s tenta novamente com o mesmo token"
		default:
			m.status = msg.Err.Error()
		}
		m.focusCurrent()
		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.wizard.State()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Retry):
		if m.source == nil || state.IsLoadingReferenceData {
			return m, nil
		}
		m.status = ""
		return m, loadReferenceCmd(m.wizard, m.source, m.loadTimeout)

	case key.Matches(msg, m.keys.NewIntake):
		if !state.Submitted {
			return m, nil
		}
		if err := m.wizard.Reset(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.rebuildForms()
		return m, nil
	}

	if state.Submitted || state.IsSubmitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.applyCurrent()
		if err := m.wizard.NextStep(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.focusCurrent()
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.applyCurrent()
		if err := m.wizard.PrevStep(); err == nil {
			m.status = ""
			m.focusCurrent()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		if form := m.currentForm(); form != nil {
			form.focusField(form.focus + 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		if form := m.currentForm(); form != nil {
			form.focusField(form.focus - 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.applyCurrent()
		m.status = "enviando..."
		if form := m.currentForm(); form != nil {
			form.blur()
		}
		return m, submitCmd(m.wizard)

	case key.Matches(msg, m.keys.Verify):
		m.applyCurrent()
		return m, verifyIdentifierCmd(m.wizard)
	}

	// Typing goes to the focused input and is applied immediately so pricing
	// and the identifier check follow every keystroke.
	form := m.currentForm()
	if form == nil || len(form.fields) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	form.fields[form.focus].input, cmd = form.fields[form.focus].input.Update(msg)
	m.applyCurrent()
	return m, cmd
}
