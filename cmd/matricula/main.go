package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/rgehrsitz/matricula/internal/api"
	"github.com/rgehrsitz/matricula/internal/breakeven"
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/config"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/eligibility"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/store"
	"github.com/spf13/cobra"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "matricula %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

var rootCmd = &cobra.Command{
	Use:   "matricula",
	Short: "Enrollment intake and tuition pricing CLI",
	Long: `Prices tuition discounts, classifies the approval they need and runs the
enrollment intake wizard, interactively or over HTTP.`,
}

// loadSettings reads --config, or matricula.yaml when present, and applies flag overrides
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	parser := config.NewInputParser()
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" && fileExists("matricula.yaml") {
		configFile = "matricula.yaml"
	}

	settings := config.DefaultSettings()
	if configFile != "" {
		loaded, err := parser.LoadSettings(configFile)
		if err != nil {
			return nil, err
		}
		settings = *loaded
	}

	if ref, _ := cmd.Flags().GetString("reference"); ref != "" {
		settings.ReferenceFile = ref
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		settings.DatabaseDSN = dsn
	}
	return &settings, parser.ValidateSettings(&settings)
}

func cliLogger(cmd *cobra.Command) calculation.Logger {
	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
		return simpleCLILogger{}
	}
	return calculation.NopLogger{}
}

// newEngine builds the pricing engine with the configured policy and eligibility rules
func newEngine(cmd *cobra.Command, settings *config.Settings) *calculation.CalculationEngine {
	engine := calculation.NewCalculationEngineWithPolicy(settings.Policy)
	engine.SetRules(eligibility.NewEvaluator())
	debugMode, _ := cmd.Flags().GetBool("debug")
	if debugMode {
		engine.SetLogger(simpleCLILogger{})
	}
	engine.Debug = debugMode
	return engine
}

// openStore connects to the database when a DSN is configured and falls back
// to an in-memory store otherwise. The returned catalog source is nil without a database.
func openStore(cmd *cobra.Command, settings *config.Settings) (api.EnrollmentStore, refdata.Source, error) {
	if settings.DatabaseDSN == "" {
		cliLogger(cmd).Warnf("no database configured; enrollments are kept in memory")
		return store.NewMemStore(), nil, nil
	}
	gs, err := store.Open(settings.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return gs, store.NewCatalogSource(gs.DB()), nil
}

// referenceSource prefers the database catalogs when --catalog-db is set
func referenceSource(cmd *cobra.Command, settings *config.Settings, catalog refdata.Source) refdata.Source {
	if fromDB, _ := cmd.Flags().GetBool("catalog-db"); fromDB && catalog != nil {
		return catalog
	}
	return refdata.NewFileSource(settings.ReferenceFile)
}

// loadReference fetches catalogs with the configured timeout
func loadReference(cmd *cobra.Command, settings *config.Settings, src refdata.Source) (*domain.ReferenceData, error) {
	loader := refdata.NewLoader(src, settings.ReferenceTimeout)
	loader.SetLogger(cliLogger(cmd))
	return loader.Load(cmd.Context())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (defaults to ./matricula.yaml when present)")
	rootCmd.PersistentFlags().String("reference", "", "Reference catalog file (overrides settings)")
	rootCmd.PersistentFlags().String("dsn", "", "PostgreSQL DSN (overrides settings)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	quoteCmd.Flags().StringP("format", "f", "console", "Output format: console, json, json-compact, csv, xlsx")
	compareCmd.Flags().StringP("format", "f", "table", "Output format: table, compact, csv, json")
	compareCmd.Flags().String("with", "", "Comma-separated list of templates to compare")
	compareCmd.Flags().Bool("list-templates", false, "List the templates derived from the catalogs")
	validateCmd.Flags().Bool("strict", false, "Treat pricing warnings as errors")
	breakEvenCmd.Flags().String("discount", "", "Discount to tune (all active discounts when empty)")
	breakEvenCmd.Flags().String("goal", string(breakeven.GoalMaxWithinApproval), "Goal: match_final, max_within_approval, max_within_cap")
	breakEvenCmd.Flags().String("target", "", "Target monthly value for match_final")
	breakEvenCmd.Flags().String("max-approval", "", "Highest approval tier for max_within_approval (default automatic)")
	breakEvenCmd.Flags().StringP("format", "f", "table", "Output format: table, json")
	intakeCmd.Flags().Bool("catalog-db", false, "Load catalogs from the database instead of the reference file")
	enrollCmd.Flags().String("token", "", "Transaction token to reuse when retrying a submission")
	enrollCmd.Flags().Bool("catalog-db", false, "Load catalogs from the database instead of the reference file")
	serveCmd.Flags().String("addr", "", "Listen address (overrides settings)")
	serveCmd.Flags().Bool("catalog-db", false, "Load catalogs from the database instead of the reference file")
	migrateCmd.Flags().Bool("seed", false, "Seed catalog tables from the reference file")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(approvalCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(breakEvenCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
