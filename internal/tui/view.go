package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/tui/components"
	"github.com/rgehrsitz/matricula/internal/wizard"
)

// View renders the UI
func (m Model) View() string {
	state := m.wizard.State()

	var content string
	switch {
	case state.IsLoadingReferenceData:
		content = m.renderLoading()
	case m.wizard.ReferenceData() == nil:
		content = m.renderReferenceError(state)
	case state.Submitted:
		content = m.renderSubmitted(state)
	default:
		content = m.renderIntake(state)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(state),
		content,
		m.renderStatusBar(state),
	))
}

func (m Model) renderHeader(state wizard.WizardState) string {
	title := TitleStyle.Render("Matrícula")
	items := make([]components.StepItem, len(wizard.Steps))
	for i, step := range wizard.Steps {
		items[i] = components.StepItem{Title: step.Title(), Status: stepStatus(state, i)}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", referenceSummary(m.wizard.ReferenceData())),
		components.NewStepProgress(items...).Render(),
		"",
	)
}

func (m Model) renderLoading() string {
	return BorderStyle.Render(m.spinner.View() + " carregando catálogos...")
}

func (m Model) renderReferenceError(state wizard.WizardState) string {
	msg := "catálogos não carregados"
	if state.ReferenceError != "" {
		msg = state.ReferenceError
	}
	return BorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		ErrorStyle.Render(msg),
		"",
		SubtitleStyle.Render("ctrl+r tenta novamente"),
	))
}

func (m Model) renderIntake(state wizard.WizardState) string {
	left := m.renderForm(state)
	right := m.renderPricing(state)
	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (m Model) renderForm(state wizard.WizardState) string {
	var b strings.Builder
	b.WriteString(SubtitleStyle.Render(state.StepID.Title()))
	b.WriteString("\n\n")

	form := m.forms[state.StepID]
	if form != nil && len(form.fields) == 0 {
		b.WriteString(SubtitleStyle.Render("nenhum desconto disponível"))
		b.WriteString("\n")
	}
	if form != nil {
		for i, fl := range form.fields {
			label := LabelStyle.Render(fl.label)
			if i == form.focus && fl.input.Focused() {
				label = FocusedLabelStyle.Render(fl.label)
			}
			b.WriteString(label)
			b.WriteString("\n  ")
			b.WriteString(fl.input.View())
			b.WriteString("\n")
		}
	}

	if state.StepID == wizard.StepStudent {
		if line := identifierLine(state.Identifier, m.spinner.View()); line != "" {
			b.WriteString("\n")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if errs := state.StepErrors[state.StepID]; len(errs) > 0 {
		b.WriteString("\n")
		for _, e := range errs {
			b.WriteString(ErrorStyle.Render("• " + e))
			b.WriteString("\n")
		}
	}
	if m.inputIssue != "" {
		b.WriteString(WarningStyle.Render("! " + m.inputIssue))
		b.WriteString("\n")
	}

	style := ActiveBorderStyle
	return style.Width(52).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderPricing(state wizard.WizardState) string {
	quote := state.Quote
	pricing := quote.Pricing

	if quote.Base.SeriesID == "" {
		return BorderStyle.Width(40).Render(
			SubtitleStyle.Render("selecione a série para ver a mensalidade"))
	}

	finalStyle := SuccessStyle
	if !pricing.IsValid {
		finalStyle = ErrorStyle
	}

	cards := components.MetricRow(
		components.NewMetricCard("Base", output.FormatCurrency(pricing.BaseValue)).WithWidth(18),
		components.NewMetricCard("Final", output.FormatCurrency(pricing.FinalValue)).
			WithValueStyle(finalStyle).
			WithDescription("-" + output.FormatPercentage(pricing.TotalDiscountPercentage)).
			WithWidth(18),
	)

	var b strings.Builder
	b.WriteString(cards)
	b.WriteString("\n\n")
	b.WriteString(components.NewCapMeter(quote.Cap).WithWidth(30).Render())
	b.WriteString("\n\n")

	approval := quote.Approval
	b.WriteString(MetricLabelStyle.Render("Aprovação"))
	b.WriteString("\n")
	b.WriteString(ApprovalStyle(string(approval.Level)).Render(approval.Description))
	b.WriteString("\n")

	for _, d := range pricing.Discounts {
		b.WriteString("\n")
		b.WriteString(d.Code + " " + output.FormatPercentage(d.Percentage) + "  " + output.FormatCurrency(d.Value))
	}
	for _, e := range pricing.ValidationErrors {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("✗ " + e))
	}
	for _, w := range pricing.Warnings {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("! " + w))
	}

	return BorderStyle.Width(40).Render(b.String())
}

func (m Model) renderSubmitted(state wizard.WizardState) string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render("Matrícula registrada"))
	b.WriteString("\n\n")
	if r := state.Receipt; r != nil {
		b.WriteString(components.MetricRow(
			components.NewMetricCard("Matrícula", r.EnrollmentID).WithWidth(40),
			components.NewMetricCard("Mensalidade", output.FormatCurrency(r.FinalValue)).WithWidth(18),
		))
		b.WriteString("\n\n")
		b.WriteString(MetricLabelStyle.Render("Aprovação: "))
		b.WriteString(ApprovalStyle(string(r.ApprovalLevel)).Render(string(r.ApprovalLevel)))
		b.WriteString("\n")
		b.WriteString(MetricLabelStyle.Render("Token: " + r.TransactionToken))
		if r.Replayed {
			b.WriteString("\n")
			b.WriteString(WarningStyle.Render("envio repetido; registro existente retornado"))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(SubtitleStyle.Render("ctrl+n inicia uma nova matrícula"))
	return BorderStyle.Render(b.String())
}

func (m Model) renderStatusBar(state wizard.WizardState) string {
	var parts []string
	for _, k := range m.keys.shortcuts() {
		h := k.Help()
		parts = append(parts, StatusKeyStyle.Render(h.Key)+" "+h.Desc)
	}
	bar := strings.Join(parts, "  ")

	status := m.status
	if state.IsSubmitting {
		status = m.spinner.View() + " enviando..."
	}
	if status != "" {
		bar = status + "\n" + bar
	}
	return StatusBarStyle.Render(bar)
}
