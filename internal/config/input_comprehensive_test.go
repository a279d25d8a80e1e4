package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser, "Should create input parser")
}

func TestInputParser_LoadReferenceData_FileNotFound(t *testing.T) {
	parser := NewInputParser()

	refs, err := parser.LoadReferenceData("nonexistent.yaml")

	assert.Error(t, err, "Should error for nonexistent file")
	assert.Nil(t, refs, "Should return nil reference data")
	assert.Contains(t, err.Error(), "failed to read file", "Should have specific error message")
}

func TestInputParser_LoadReferenceData_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	invalidFile := filepath.Join(tmpDir, "invalid.yaml")

	err := os.WriteFile(invalidFile, []byte("discounts: [unclosed"), 0644)
	require.NoError(t, err)

	parser := NewInputParser()
	refs, err := parser.LoadReferenceData(invalidFile)

	assert.Error(t, err, "Should error for invalid YAML")
	assert.Nil(t, refs)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestInputParser_LoadReferenceData_ValidYAML(t *testing.T) {
	parser := NewInputParser()

	refs, err := parser.LoadReferenceData(filepath.Join("testdata", "reference.yaml"))
	require.NoError(t, err)
	require.NotNil(t, refs)

	assert.Equal(t, 6, refs.Discounts.Len())
	assert.Len(t, refs.Discounts.ActiveEntries(), 5, "Inactive entries are kept but not offered")
	assert.False(t, refs.LoadedAt.IsZero())

	irm, ok := refs.Discounts.Lookup("irm")
	require.True(t, ok)
	assert.Equal(t, domain.CategorySibling, irm.Category)
	assert.True(t, irm.MaxPercentage.Equal(decimal.NewFromInt(15)))
	assert.NotNil(t, irm.Eligibility)

	series, ok := refs.FindSeries("em-3")
	require.True(t, ok)
	assert.Equal(t, "2150.5", series.BaseMonthlyValue.String())

	track, ok := refs.FindTrack("padrao")
	require.True(t, ok)
	assert.True(t, track.CapMaximum.Equal(decimal.NewFromInt(50)))
}

func TestInputParser_ParseReferenceData_Invalid(t *testing.T) {
	testCases := []struct {
		desc     string
		yaml     string
		contains string
	}{
		{
			desc: "discount above 100%",
			yaml: `
discounts:
  - {id: x, code: X, name: X, category: comercial, max_percentage: 120, active: true}
series:
  - {id: s, name: S, base_monthly_value: 100}
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "max percentage",
		},
		{
			desc: "duplicate discount id",
			yaml: `
discounts:
  - {id: x, code: X, name: X, max_percentage: 10, active: true}
  - {id: x, code: Y, name: Y, max_percentage: 10, active: true}
series:
  - {id: s, name: S, base_monthly_value: 100}
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "duplicate",
		},
		{
			desc: "no series",
			yaml: `
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "no series provided",
		},
		{
			desc: "negative base value",
			yaml: `
series:
  - {id: s, name: S, base_monthly_value: -1}
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "base monthly value cannot be negative",
		},
		{
			desc: "duplicate series",
			yaml: `
series:
  - {id: s, name: S, base_monthly_value: 100}
  - {id: s, name: S2, base_monthly_value: 200}
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "duplicate series id s",
		},
		{
			desc: "no tracks",
			yaml: `
series:
  - {id: s, name: S, base_monthly_value: 100}
`,
			contains: "no tracks provided",
		},
		{
			desc: "track cap out of range",
			yaml: `
series:
  - {id: s, name: S, base_monthly_value: 100}
tracks:
  - {id: t, name: T, cap_maximum: 250}
`,
			contains: "cap maximum must be between 0 and 200",
		},
		{
			desc: "broken eligibility rule",
			yaml: `
discounts:
  - id: x
    code: X
    name: X
    max_percentage: 10
    active: true
    eligibility:
      nosuchoperator: [1, 2]
series:
  - {id: s, name: S, base_monthly_value: 100}
tracks:
  - {id: t, name: T, cap_maximum: 50}
`,
			contains: "discount x eligibility",
		},
	}

	parser := NewInputParser()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			refs, err := parser.ParseReferenceData([]byte(tc.yaml))
			require.Error(t, err)
			assert.Nil(t, refs)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestInputParser_LoadQuoteRequest(t *testing.T) {
	parser := NewInputParser()

	req, err := parser.LoadQuoteRequest(filepath.Join("testdata", "quote.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ef1-1", req.SeriesID)
	assert.Equal(t, "padrao", req.TrackID)
	assert.Equal(t, 1, req.Siblings)
	require.Len(t, req.Discounts, 2)
	assert.Equal(t, "pont", req.Discounts[0].DiscountID)
	assert.True(t, req.Discounts[1].AppliedPercentage.Equal(decimal.NewFromInt(15)))
}

func TestInputParser_LoadQuoteRequest_MissingSeries(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "quote.yaml")
	require.NoError(t, os.WriteFile(file, []byte("track_id: padrao\n"), 0644))

	_, err := NewInputParser().LoadQuoteRequest(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "series_id is required")
}

func TestInputParser_LoadSnapshot(t *testing.T) {
	parser := NewInputParser()

	snapshot, err := parser.LoadSnapshot(filepath.Join("testdata", "snapshot.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Maria Clara Souza", snapshot.Student.Name)
	assert.Equal(t, 2019, snapshot.Student.BirthDate.Year())
	require.Len(t, snapshot.Guardians, 1)
	responsible, ok := snapshot.FinancialResponsible()
	assert.True(t, ok)
	assert.Equal(t, "Ana Paula Souza", responsible.Name)
	assert.Equal(t, "SP", snapshot.Address.State)
	assert.Equal(t, "padrao", snapshot.Academic.TrackID)
	assert.Len(t, snapshot.Discounts, 2)
	assert.True(t, snapshot.Review.Confirmed)
}

func TestInputParser_LoadSnapshot_EmptyFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "empty.yaml")
	require.NoError(t, os.WriteFile(file, []byte("student:\n  name: Joao\n"), 0644))

	snapshot, err := NewInputParser().LoadSnapshot(file)
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Guardians)
	assert.NotNil(t, snapshot.Discounts)
}

func TestInputParser_LoadComparison(t *testing.T) {
	req, err := NewInputParser().LoadComparison(filepath.Join("testdata", "compare.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "atual", req.BaseName)
	assert.Equal(t, "ef1-1", req.Base.SeriesID)
	assert.Equal(t, 1, req.Base.Siblings)
	require.Len(t, req.Scenarios, 3)
	assert.Equal(t, "irmaos", req.Scenarios[0].Name)
	require.Len(t, req.Scenarios[0].Discounts, 2)
	assert.True(t, req.Scenarios[0].Discounts[1].AppliedPercentage.Equal(decimal.NewFromInt(15)))
	assert.Empty(t, req.Scenarios[1].Discounts)
	assert.Nil(t, req.Scenarios[2].Discounts)
	assert.Equal(t, []string{"set_track:track=social"}, req.Scenarios[2].Transforms)
}

func TestInputParser_LoadComparison_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing series", "scenarios:\n  - name: a\n", "base.series_id is required"},
		{"bad transform", "base:\n  series_id: ef1-1\nscenarios:\n  - name: a\n    transforms: [frobnicate]\n", "unknown transform: frobnicate"},
		{"bad yaml", "base: [", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "compare.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewInputParser().LoadComparison(path)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
