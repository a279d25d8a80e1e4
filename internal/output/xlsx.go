package output

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const proposalSheet = "Proposta"

// XLSXFormatter renders a proposal as a single-sheet Excel workbook
type XLSXFormatter struct{}

func (xf XLSXFormatter) Name() string { return "xlsx" }

func (xf XLSXFormatter) Format(p Proposal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(proposalSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	q := p.Quote
	rows := [][]any{
		{"Aluno", p.StudentName},
		{"Série", p.seriesLabel()},
		{"Trilha", p.trackLabel()},
		{},
		{"Código", "Desconto", "Percentual", "Valor"},
	}
	for _, d := range q.Pricing.Discounts {
		rows = append(rows, []any{d.Code, d.Name, d.Percentage.InexactFloat64(), d.Value.InexactFloat64()})
	}
	rows = append(rows,
		[]any{},
		[]any{"Mensalidade base", "", "", q.Pricing.BaseValue.InexactFloat64()},
		[]any{"Total de descontos", "", q.Pricing.TotalDiscountPercentage.InexactFloat64(), q.Pricing.TotalDiscountValue.InexactFloat64()},
		[]any{"Mensalidade final", "", "", q.Pricing.FinalValue.InexactFloat64()},
		[]any{"Total do ano", "", "", q.Annual.AnnualTotal.InexactFloat64()},
		[]any{"CAP", p.CapBanner},
		[]any{"Aprovação", q.Approval.Description},
	)

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(proposalSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set %s: %w", cell, err)
			}
		}
	}
	if err := f.SetColWidth(proposalSheet, "A", "B", 28); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
