package compare

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

var approvalLabels = map[string]string{
	"automatic":   "automática",
	"coordinator": "coordenação",
	"director":    "diretoria",
}

// Format generates a formatted table comparing packages
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("COMPARAÇÃO DE PACOTES DE DESCONTO\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Base: %s\n", compSet.BaseScenarioName))
	sb.WriteString(fmt.Sprintf("Série: %s  Trilha: %s\n", compSet.SeriesID, compSet.TrackID))
	sb.WriteString("\n")

	nameWidth := 24
	numWidth := 13

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Pacote",
		numWidth, "Desconto",
		numWidth, "Mensalidade",
		numWidth, "Anual",
		numWidth, "Aprovação"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if compSet.BaseResult != nil {
		sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nDIFERENÇA PARA A BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			if alt.Description != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", alt.Description))
			}
			sb.WriteString(fmt.Sprintf("  Mensalidade:  %s\n", tf.formatDelta(alt.FinalDiffFromBase)))
			sb.WriteString(fmt.Sprintf("  Anual:        %s\n", tf.formatDelta(alt.AnnualDiffFromBase)))
			if alt.ApprovalStepsDiff > 0 {
				sb.WriteString(fmt.Sprintf("  Aprovação:    +%d nível(is)\n", alt.ApprovalStepsDiff))
			} else if alt.ApprovalStepsDiff < 0 {
				sb.WriteString(fmt.Sprintf("  Aprovação:    %d nível(is)\n", alt.ApprovalStepsDiff))
			}
			for _, issue := range alt.Issues {
				sb.WriteString(fmt.Sprintf("  ! %s\n", issue))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMENDAÇÕES\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single package row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	approval := approvalLabels[string(result.ApprovalLevel)]
	if !result.Valid {
		approval = "inválido"
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, output.FormatPercentage(result.TotalDiscountPercentage),
		numWidth, output.FormatCurrency(result.FinalValue),
		numWidth, output.FormatCurrency(result.AnnualTotal),
		numWidth, approval)
}

// formatDelta renders a currency difference with an explicit sign
func (tf *TableFormatter) formatDelta(delta decimal.Decimal) string {
	switch {
	case delta.IsPositive():
		return "+" + output.FormatCurrency(delta)
	case delta.IsNegative():
		return output.FormatCurrency(delta)
	default:
		return "="
	}
}

// truncate shortens s to maxLen runes
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

// FormatCompact creates a compact single-line summary for each package
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScenarioName))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, tf.formatDelta(alt.FinalDiffFromBase)))
	}

	return sb.String()
}
