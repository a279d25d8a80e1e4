package tui

import "github.com/rgehrsitz/matricula/internal/tui/tuistyles"

// Re-export styles from tuistyles so the components package can share them
var (
	// Colors
	ColorPrimary = tuistyles.ColorPrimary
	ColorSuccess = tuistyles.ColorSuccess
	ColorDanger  = tuistyles.ColorDanger
	ColorWarning = tuistyles.ColorWarning
	ColorMuted   = tuistyles.ColorMuted

	// Base styles
	AppStyle          = tuistyles.AppStyle
	TitleStyle        = tuistyles.TitleStyle
	SubtitleStyle     = tuistyles.SubtitleStyle
	StatusBarStyle    = tuistyles.StatusBarStyle
	StatusKeyStyle    = tuistyles.StatusKeyStyle
	BorderStyle       = tuistyles.BorderStyle
	ActiveBorderStyle = tuistyles.ActiveBorderStyle
	LabelStyle        = tuistyles.LabelStyle
	FocusedLabelStyle = tuistyles.FocusedLabelStyle
	MetricLabelStyle  = tuistyles.MetricLabelStyle
	ErrorStyle        = tuistyles.ErrorStyle
	WarningStyle      = tuistyles.WarningStyle
	SuccessStyle      = tuistyles.SuccessStyle
)

// Re-export helper functions
var (
	ApprovalStyle = tuistyles.ApprovalStyle
)
