package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as a console table
type TableFormatter struct{}

var goalLabels = map[OptimizationGoal]string{
	GoalMatchFinal:        "atingir mensalidade alvo",
	GoalMaxWithinApproval: "máximo sem subir de alçada",
	GoalMaxWithinCap:      "máximo dentro do CAP",
}

// Format generates a formatted table for one solver result
func (tf *TableFormatter) Format(result *OptimizationResult) string {
	var sb strings.Builder

	sb.WriteString("PONTO DE EQUILÍBRIO DE DESCONTO\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	sb.WriteString(fmt.Sprintf("Meta:        %s\n", goalLabels[result.Goal]))
	sb.WriteString(fmt.Sprintf("Desconto:    %s\n", result.DiscountID))
	sb.WriteString(fmt.Sprintf("Status:      %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterações:   %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Detalhe:     %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	pricing := result.Quote.Pricing
	sb.WriteString("RESULTADO\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Percentual:      %s\n", output.FormatPercentage(result.Percentage)))
	sb.WriteString(fmt.Sprintf("Desconto total:  %s\n", output.FormatPercentage(pricing.TotalDiscountPercentage)))
	sb.WriteString(fmt.Sprintf("Mensalidade:     %s\n", output.FormatCurrency(pricing.FinalValue)))
	sb.WriteString(fmt.Sprintf("CAP:             %s\n", calculation.CapBanner(result.Quote.Cap)))
	sb.WriteString(fmt.Sprintf("Aprovação:       %s\n", result.Quote.Approval.Description))
	sb.WriteString("\n")

	sb.WriteString("COMPARAÇÃO COM A BASE\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Mensalidade base: %s\n", output.FormatCurrency(result.BaseQuote.Pricing.FinalValue)))
	sb.WriteString(fmt.Sprintf("Diferença:        %s\n", tf.formatDelta(result.FinalDiffFromBase)))

	if result.Goal == GoalMatchFinal {
		sb.WriteString(fmt.Sprintf("Alvo:             %s\n", output.FormatCurrency(result.Request.TargetFinal)))
	}

	return sb.String()
}

// FormatMultiDimensional formats one goal solved for every discount
func (tf *TableFormatter) FormatMultiDimensional(result *MultiDimensionalResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("PONTO DE EQUILÍBRIO POR DESCONTO (%s)\n", goalLabels[result.Goal]))
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("%-12s %10s %14s %20s\n", "Desconto", "Percentual", "Mensalidade", "Status"))
	sb.WriteString(strings.Repeat("-", 60) + "\n")

	for _, res := range result.Results {
		sb.WriteString(fmt.Sprintf("%-12s %10s %14s %20s\n",
			tf.truncate(res.DiscountID, 12),
			output.FormatPercentage(res.Percentage),
			output.FormatCurrency(res.Quote.Pricing.FinalValue),
			tf.formatStatus(res.Success)))
	}
	sb.WriteString("\n")

	if len(result.Recommendations) > 0 {
		sb.WriteString("RECOMENDAÇÕES\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *OptimizationResult) (string, error) {
	return jf.marshal(result)
}

// FormatMultiDimensional formats multi-discount results as JSON
func (jf *JSONFormatter) FormatMultiDimensional(result *MultiDimensionalResult) (string, error) {
	return jf.marshal(result)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data) + "\n", nil
}

// Helper methods

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ encontrado"
	}
	return "⚠ não atendido"
}

func (tf *TableFormatter) formatDelta(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+" + output.FormatCurrency(delta)
	}
	return output.FormatCurrency(delta)
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
