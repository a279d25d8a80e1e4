// Package tuistyles holds the lipgloss palette shared by the tui and its components.
package tuistyles

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}

	ColorForeground = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder     = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
)

// Base styles
var (
	AppStyle = lipgloss.NewStyle().Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorBorder)

	StatusKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	ActiveBorderStyle = BorderStyle.BorderForeground(ColorPrimary)

	LabelStyle        = lipgloss.NewStyle().Foreground(ColorMuted).Width(26)
	FocusedLabelStyle = LabelStyle.Foreground(ColorPrimary).Bold(true)

	MetricLabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	MetricValueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorForeground)

	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
)

// ApprovalStyle colors an approval tier name
func ApprovalStyle(tier string) lipgloss.Style {
	switch tier {
	case "automatic":
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	case "coordinator":
		return lipgloss.NewStyle().Foreground(ColorAccent)
	default:
		return lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	}
}
