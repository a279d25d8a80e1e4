package output

import (
	"bytes"
	"fmt"
	"strings"
)

// ConsoleFormatter renders a proposal as a fixed-width text report
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(p Proposal) ([]byte, error) {
	var buf bytes.Buffer
	q := p.Quote

	fmt.Fprintln(&buf, strings.Repeat("=", 64))
	fmt.Fprintln(&buf, "PROPOSTA DE MATRÍCULA")
	fmt.Fprintln(&buf, strings.Repeat("=", 64))
	if p.StudentName != "" {
		fmt.Fprintf(&buf, "Aluno:  %s\n", p.StudentName)
	}
	fmt.Fprintf(&buf, "Série:  %s\n", p.seriesLabel())
	fmt.Fprintf(&buf, "Trilha: %s\n", p.trackLabel())
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "%-36s %14s %10s\n", "Desconto", "Valor", "%")
	fmt.Fprintln(&buf, strings.Repeat("-", 64))
	if len(q.Pricing.Discounts) == 0 {
		fmt.Fprintln(&buf, "(nenhum desconto aplicado)")
	}
	for _, d := range q.Pricing.Discounts {
		fmt.Fprintf(&buf, "%-36s %14s %10s\n", truncate(d.Code+" "+d.Name, 36), FormatCurrency(d.Value), FormatPercentage(d.Percentage))
	}
	fmt.Fprintln(&buf, strings.Repeat("-", 64))
	fmt.Fprintf(&buf, "%-36s %14s\n", "Mensalidade base", FormatCurrency(q.Pricing.BaseValue))
	fmt.Fprintf(&buf, "%-36s %14s %10s\n", "Total de descontos", FormatCurrency(q.Pricing.TotalDiscountValue), FormatPercentage(q.Pricing.TotalDiscountPercentage))
	fmt.Fprintf(&buf, "%-36s %14s\n", "Mensalidade final", FormatCurrency(q.Pricing.FinalValue))
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "CAP: %s\n", p.CapBanner)
	fmt.Fprintf(&buf, "Aprovação: %s\n", q.Approval.Description)
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "RESUMO ANUAL (%d parcelas)\n", q.Annual.Installments)
	fmt.Fprintf(&buf, "  Anuidade:           %s\n", FormatCurrency(q.Annual.AnnualTuition))
	fmt.Fprintf(&buf, "  Material didático:  %s\n", FormatCurrency(q.Annual.MaterialValue))
	fmt.Fprintf(&buf, "  Total do ano:       %s\n", FormatCurrency(q.Annual.AnnualTotal))
	fmt.Fprintf(&buf, "  Economia no ano:    %s\n", FormatCurrency(q.Annual.AnnualDiscount))

	if !q.Pricing.IsValid {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "PROPOSTA INVÁLIDA:")
		for _, e := range q.Pricing.ValidationErrors {
			fmt.Fprintf(&buf, "  ✗ %s\n", e)
		}
	}
	if len(q.Pricing.Warnings) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "AVISOS:")
		for _, w := range q.Pricing.Warnings {
			fmt.Fprintf(&buf, "  • %s\n", w)
		}
	}
	return buf.Bytes(), nil
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
