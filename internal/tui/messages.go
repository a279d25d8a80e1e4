package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/store"
	"github.com/rgehrsitz/matricula/internal/wizard"
)

// Message types for the Bubble Tea update cycle

// ReferenceLoadedMsg signals the catalog fetch finished
type ReferenceLoadedMsg struct {
	Refs *domain.ReferenceData
	Err  error
}

// SubmitCompleteMsg signals a submission attempt finished
type SubmitCompleteMsg struct {
	Receipt store.Receipt
	Err     error
}

// IdentifierCheckedMsg signals an explicit uniqueness check finished
type IdentifierCheckedMsg struct {
	Status wizard.IdentifierStatus
	Err    error
}

// loadReferenceCmd fetches catalogs into the wizard
func loadReferenceCmd(w *wizard.Wizard, src refdata.Source, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := w.LoadReferenceData(ctx, src)
		return ReferenceLoadedMsg{Refs: w.ReferenceData(), Err: err}
	}
}

// submitCmd runs one submission attempt
func submitCmd(w *wizard.Wizard) tea.Cmd {
	return func() tea.Msg {
		receipt, err := w.SubmitForm(context.Background())
		return SubmitCompleteMsg{Receipt: receipt, Err: err}
	}
}

// verifyIdentifierCmd forces the uniqueness lookup for the current CPF
func verifyIdentifierCmd(w *wizard.Wizard) tea.Cmd {
	return func() tea.Msg {
		status, err := w.VerifyIdentifier(context.Background())
		return IdentifierCheckedMsg{Status: status, Err: err}
	}
}
