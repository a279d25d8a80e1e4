package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/compare"
	"github.com/rgehrsitz/matricula/internal/config"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/transform"
	"github.com/rgehrsitz/matricula/internal/wizard"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote [request-file]",
	Short: "Price a discount selection for a series and track",
	Long: `Price a discount selection and print the resulting proposal.

Examples:
  matricula quote quote.yaml
  matricula quote quote.yaml --format json
  matricula quote quote.yaml --format xlsx   # writes proposta_<timestamp>.xlsx
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		req, err := config.NewInputParser().LoadQuoteRequest(args[0])
		if err != nil {
			log.Fatal(err)
		}

		refs, err := loadReference(cmd, settings, referenceSource(cmd, settings, nil))
		if err != nil {
			log.Fatal(err)
		}

		engine := newEngine(cmd, settings)
		quote := engine.Quote(*req, refs)
		proposal := output.NewProposal(quote, req.Snapshot(), refs, time.Now())

		outputFormat, _ := cmd.Flags().GetString("format")
		f := output.GetFormatterByName(outputFormat)
		if f == nil {
			log.Fatalf("unknown format %q (available: %s)", outputFormat, strings.Join(output.FormatterNames(), ", "))
		}

		// Spreadsheets go to a file; everything else to stdout
		if f.Name() == "xlsx" {
			path, err := output.WriteFormatted(f, proposal, "xlsx")
			if err != nil {
				log.Fatal(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposta gravada em %s\n", path)
			return
		}

		data, err := f.Format(proposal)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

var approvalCmd = &cobra.Command{
	Use:   "approval [total-percentage]",
	Short: "Show the approval level a total discount percentage requires",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw := strings.TrimSuffix(strings.ReplaceAll(args[0], ",", "."), "%")
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			log.Fatalf("invalid percentage %q: %v", args[0], err)
		}
		level := calculation.ClassifyApproval(pct)
		fmt.Fprintf(cmd.OutOrStdout(), "%s%%: %s (%s)\n", pct.String(), level.Description, level.Level)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [snapshot-file]",
	Short: "Validate a complete enrollment form without submitting it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		snapshot, err := config.NewInputParser().LoadSnapshot(args[0])
		if err != nil {
			log.Fatal(err)
		}

		refs, err := loadReference(cmd, settings, referenceSource(cmd, settings, nil))
		if err != nil {
			log.Fatal(err)
		}

		gate := wizard.NewGate()
		quote := newEngine(cmd, settings).Derive(*snapshot, refs)
		out := cmd.OutOrStdout()

		failed := false
		failures := gate.ValidateAll(*snapshot, refs)
		for _, step := range wizard.Steps {
			missing := gate.RequiredFields(step, *snapshot)
			check, bad := failures[step]
			if missing.OK && !bad {
				continue
			}
			failed = true
			fmt.Fprintf(out, "%s:\n", step.Title())
			for _, field := range missing.MissingFields {
				fmt.Fprintf(out, "  • campo obrigatório: %s\n", field)
			}
			if bad {
				for _, e := range check.Errors {
					fmt.Fprintf(out, "  • %s\n", e)
				}
			}
		}

		fmt.Fprintf(out, "Mensalidade: %s  (%s)\n", output.FormatCurrency(quote.Pricing.FinalValue), calculation.CapBanner(quote.Cap))
		fmt.Fprintf(out, "Aprovação: %s\n", quote.Approval.Description)
		for _, w := range quote.Pricing.Warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}

		strict, _ := cmd.Flags().GetBool("strict")
		if !quote.Pricing.IsValid || (strict && len(quote.Pricing.Warnings) > 0) {
			failed = true
		}
		if failed {
			log.Fatalf("form %s is not valid", args[0])
		}
		fmt.Fprintf(out, "Form %s is valid\n", args[0])
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [comparison-file]",
	Short: "Compare alternative discount packages against a base quote",
	Long: `Price every discount package in the file for the same series, track and
family, and report how each differs from the base package. Built-in templates
derived from the catalogs can be added with --with.

Examples:
  matricula compare packages.yaml
  matricula compare packages.yaml --with max_irm,sem_descontos --format csv
  matricula compare --list-templates
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		refs, err := loadReference(cmd, settings, referenceSource(cmd, settings, nil))
		if err != nil {
			log.Fatal(err)
		}
		templates := transform.CreateBuiltInTemplates(refs)

		if listTemplates, _ := cmd.Flags().GetBool("list-templates"); listTemplates {
			fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(templates))
			return
		}

		if len(args) == 0 {
			log.Fatal("comparison file required (use --list-templates to see available templates)")
		}

		req, err := config.NewInputParser().LoadComparison(args[0])
		if err != nil {
			log.Fatal(err)
		}

		templatesStr, _ := cmd.Flags().GetString("with")
		for _, name := range transform.ParseTemplateList(templatesStr) {
			tpl, ok := templates.Get(name)
			if !ok {
				log.Fatalf("unknown template %q (use --list-templates)", name)
			}
			req.Scenarios = append(req.Scenarios, compare.ScenarioFromTemplate(tpl))
		}
		if len(req.Scenarios) == 0 {
			log.Fatal("nothing to compare: add scenarios to the file or templates with --with")
		}

		compSet, err := compare.NewCompareEngine(newEngine(cmd, settings)).Compare(cmd.Context(), refs, *req)
		if err != nil {
			log.Fatal(err)
		}

		outputFormat, _ := cmd.Flags().GetString("format")
		var result string
		switch strings.ToLower(outputFormat) {
		case "table", "":
			result = (&compare.TableFormatter{}).Format(compSet)
		case "compact":
			result = (&compare.TableFormatter{}).FormatCompact(compSet) + "\n"
		case "csv":
			result, err = (&compare.CSVFormatter{}).Format(compSet)
		case "json":
			result, err = (&compare.JSONFormatter{Pretty: true}).Format(compSet)
		default:
			log.Fatalf("unknown format %q (available: table, compact, csv, json)", outputFormat)
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), result)
	},
}
