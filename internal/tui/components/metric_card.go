package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/matricula/internal/tui/tuistyles"
)

// MetricCard displays a single pricing figure with label and optional note
type MetricCard struct {
	Label       string
	Value       string
	Description string
	ValueStyle  *lipgloss.Style
	Width       int
}

// NewMetricCard creates a new metric card
func NewMetricCard(label, value string) *MetricCard {
	return &MetricCard{
		Label: label,
		Value: value,
		Width: 22,
	}
}

// WithDescription adds a description/subtitle
func (m *MetricCard) WithDescription(desc string) *MetricCard {
	m.Description = desc
	return m
}

// WithValueStyle overrides the value style, e.g. to color an approval tier
func (m *MetricCard) WithValueStyle(style lipgloss.Style) *MetricCard {
	m.ValueStyle = &style
	return m
}

// WithWidth sets the card width
func (m *MetricCard) WithWidth(width int) *MetricCard {
	m.Width = width
	return m
}

// Render returns the styled metric card
func (m *MetricCard) Render() string {
	valueStyle := tuistyles.MetricValueStyle
	if m.ValueStyle != nil {
		valueStyle = *m.ValueStyle
	}
	content := tuistyles.MetricLabelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Description != "" {
		content += "\n" + tuistyles.SubtitleStyle.Render(m.Description)
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Width(m.Width)

	return cardStyle.Render(content)
}

// RenderCompact returns an inline version without border
func (m *MetricCard) RenderCompact() string {
	valueStyle := tuistyles.MetricValueStyle
	if m.ValueStyle != nil {
		valueStyle = *m.ValueStyle
	}
	return tuistyles.MetricLabelStyle.Render(m.Label+":") + " " + valueStyle.Render(m.Value)
}

// MetricRow renders cards side by side
func MetricRow(cards ...*MetricCard) string {
	rendered := make([]string, 0, len(cards))
	for _, card := range cards {
		rendered = append(rendered, card.Render())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
