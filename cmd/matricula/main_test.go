package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testReference = "../../internal/config/testdata/reference.yaml"
	testQuote     = "../../internal/config/testdata/quote.yaml"
	testCompare   = "../../internal/config/testdata/compare.yaml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	require.NotNil(t, rootCmd)
	assert.Equal(t, "matricula", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.Flag("help"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("reference"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dsn"))
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "matricula")
	assert.Contains(t, out, "intake")
}

func TestCommandSubcommands(t *testing.T) {
	expected := []string{"quote", "approval", "validate", "compare", "breakeven", "intake", "enroll", "serve", "migrate", "version"}

	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "expected command %q to be registered", name)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
}

func TestRootCommand_InvalidFlag(t *testing.T) {
	_, err := execute(t, "--invalid-flag")
	assert.Error(t, err)
}

func TestApprovalCommand(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"20", "Aprovação automática"},
		{"35,5%", "Requer aprovação da coordenação"},
		{"50", "Requer aprovação da coordenação"},
		{"50.01", "Requer aprovação da diretoria"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			out, err := execute(t, "approval", tt.arg)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestQuoteCommand_JSON(t *testing.T) {
	out, err := execute(t, "quote", testQuote, "--reference", testReference, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "ef1-1")
	assert.Contains(t, out, "capBanner")
}

func TestCompareCommand_Compact(t *testing.T) {
	out, err := execute(t, "compare", testCompare, "--reference", testReference, "--format", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Base:")
}

func TestCompareCommand_Templates(t *testing.T) {
	t.Cleanup(func() {
		_ = compareCmd.Flags().Set("with", "")
		_ = compareCmd.Flags().Set("list-templates", "false")
	})

	out, err := execute(t, "compare", "--reference", testReference, "--list-templates")
	require.NoError(t, err)
	assert.Contains(t, out, "sem_descontos")
	assert.Contains(t, out, "max_pont")

	require.NoError(t, compareCmd.Flags().Set("list-templates", "false"))
	out, err = execute(t, "compare", testCompare, "--reference", testReference, "--format", "csv", "--with", "sem_descontos")
	require.NoError(t, err)
	assert.Contains(t, out, "sem_descontos")
}

func TestBreakEvenCommand(t *testing.T) {
	out, err := execute(t, "breakeven", testQuote, "--reference", testReference, "--discount", "pont", "--goal", "max_within_cap")
	require.NoError(t, err)
	assert.Contains(t, out, "PONTO DE EQUILÍBRIO DE DESCONTO")
	assert.Contains(t, out, "máximo dentro do CAP")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "matricula dev")
}

func TestFileExists(t *testing.T) {
	assert.True(t, fileExists("main.go"))
	assert.False(t, fileExists("non_existing_file.txt"))
}
