package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/tui/tuistyles"
	"github.com/shopspring/decimal"
)

// CapMeter displays how much of the track CAP the current discounts use
type CapMeter struct {
	Check domain.CapCheck
	Width int
	Label string
}

// NewCapMeter creates a meter for a CAP check
func NewCapMeter(check domain.CapCheck) *CapMeter {
	return &CapMeter{
		Check: check,
		Width: 30,
		Label: "CAP da trilha",
	}
}

// WithWidth sets the bar width
func (c *CapMeter) WithWidth(width int) *CapMeter {
	c.Width = width
	return c
}

// Filled returns how many cells of the bar are filled, clamped to the width
func (c *CapMeter) Filled() int {
	if !c.Check.CapMaximum.IsPositive() {
		if c.Check.CapUtilized.IsPositive() {
			return c.Width
		}
		return 0
	}
	ratio := c.Check.CapUtilized.Div(c.Check.CapMaximum)
	filled := int(ratio.Mul(decimal.NewFromInt(int64(c.Width))).IntPart())
	if filled > c.Width {
		filled = c.Width
	}
	if filled < 0 {
		filled = 0
	}
	return filled
}

// Render returns the styled meter
func (c *CapMeter) Render() string {
	var content strings.Builder

	if c.Label != "" {
		content.WriteString(tuistyles.MetricLabelStyle.Render(c.Label))
		content.WriteString("\n")
	}

	filled := c.Filled()
	barColor := tuistyles.ColorSuccess
	if c.Check.Exceeded {
		barColor = tuistyles.ColorDanger
	} else if filled*5 >= c.Width*4 {
		barColor = tuistyles.ColorWarning
	}
	barStyle := lipgloss.NewStyle().Foreground(barColor)
	emptyStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorBorder)

	content.WriteString("[")
	content.WriteString(barStyle.Render(strings.Repeat("█", filled)))
	content.WriteString(emptyStyle.Render(strings.Repeat("░", c.Width-filled)))
	content.WriteString("]\n")

	banner := calculation.CapBanner(c.Check)
	if c.Check.Exceeded {
		content.WriteString(tuistyles.ErrorStyle.Render(banner + " (excedido)"))
	} else {
		content.WriteString(tuistyles.MetricValueStyle.Render(banner))
	}
	return content.String()
}

// StepItem is one entry of the step progress list
type StepItem struct {
	Title  string
	Status string // "done", "current", "blocked", "pending"
}

// StepProgress lists the wizard steps with their status
type StepProgress struct {
	Items []StepItem
}

// NewStepProgress creates a step list
func NewStepProgress(items ...StepItem) *StepProgress {
	return &StepProgress{Items: items}
}

// Render returns the steps on one line
func (p *StepProgress) Render() string {
	parts := make([]string, 0, len(p.Items))
	for i, item := range p.Items {
		label := fmt.Sprintf("%s %d.%s", statusIcon(item.Status), i+1, item.Title)
		parts = append(parts, statusStyle(item.Status).Render(label))
	}
	return strings.Join(parts, tuistyles.SubtitleStyle.Render("  ›  "))
}

func statusIcon(status string) string {
	switch status {
	case "done":
		return "✓"
	case "current":
		return "●"
	case "blocked":
		return "✗"
	default:
		return "○"
	}
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess)
	case "current":
		return lipgloss.NewStyle().Foreground(tuistyles.ColorPrimary).Bold(true)
	case "blocked":
		return lipgloss.NewStyle().Foreground(tuistyles.ColorDanger).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	}
}
