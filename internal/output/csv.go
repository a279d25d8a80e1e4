package output

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter renders one row per applied discount followed by the totals
type CSVFormatter struct{}

func (cf CSVFormatter) Name() string { return "csv" }

func (cf CSVFormatter) Format(p Proposal) ([]byte, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{"Line", "Code", "Name", "Percentage", "Value"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	pricing := p.Quote.Pricing
	if err := writer.Write([]string{"base", "", p.seriesLabel(), "", pricing.BaseValue.StringFixed(2)}); err != nil {
		return nil, err
	}
	for _, d := range pricing.Discounts {
		row := []string{"discount", d.Code, d.Name, d.Percentage.String(), d.Value.StringFixed(2)}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	totals := [][]string{
		{"total_discount", "", "", pricing.TotalDiscountPercentage.String(), pricing.TotalDiscountValue.StringFixed(2)},
		{"final", "", string(p.Quote.Approval.Level), "", pricing.FinalValue.StringFixed(2)},
		{"annual_total", "", "", "", p.Quote.Annual.AnnualTotal.StringFixed(2)},
	}
	if err := writer.WriteAll(totals); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
