package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Formatter renders a proposal in one output format
type Formatter interface {
	Name() string
	Format(p Proposal) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(p Proposal) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(p Proposal) ([]byte, error) { return f.F(p) }

// GetFormatterByName returns the formatter registered under name, or nil
func GetFormatterByName(name string) Formatter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "console", "text", "":
		return ConsoleFormatter{}
	case "json":
		return JSONFormatter{Pretty: true}
	case "json-compact":
		return JSONFormatter{}
	case "csv":
		return CSVFormatter{}
	case "xlsx", "excel":
		return XLSXFormatter{}
	default:
		return nil
	}
}

// FormatterNames lists the names accepted by GetFormatterByName
func FormatterNames() []string {
	return []string{"console", "json", "json-compact", "csv", "xlsx"}
}

// WriteFormatted renders p and writes it to a timestamped file in the working directory
func WriteFormatted(f Formatter, p Proposal, ext string) (string, error) {
	data, err := f.Format(p)
	if err != nil {
		return "", fmt.Errorf("failed to format proposal as %s: %w", f.Name(), err)
	}
	filename := fmt.Sprintf("proposta_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// FormatCurrency formats a decimal as Brazilian reais, e.g. R$ 1.234,56
func FormatCurrency(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return sign + "R$ " + grouped.String() + "," + frac
}

// FormatPercentage formats a decimal as a percentage without trailing zeros
func FormatPercentage(amount decimal.Decimal) string {
	return amount.String() + "%"
}
