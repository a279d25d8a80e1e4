package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Final Value",
		"Total Discount %",
		"Total Discount Value",
		"Annual Total",
		"Valid",
		"Approval",
		"Final Diff from Base",
		"Annual Diff from Base",
		"Approval Steps Diff",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		result.FinalValue.StringFixed(2),
		result.TotalDiscountPercentage.String(),
		result.TotalDiscountValue.StringFixed(2),
		result.AnnualTotal.StringFixed(2),
		strconv.FormatBool(result.Valid),
		string(result.ApprovalLevel),
		result.FinalDiffFromBase.StringFixed(2),
		result.AnnualDiffFromBase.StringFixed(2),
		strconv.Itoa(result.ApprovalStepsDiff),
	}
}
