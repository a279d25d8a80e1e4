package main

import (
	"errors"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rgehrsitz/matricula/internal/api"
	"github.com/rgehrsitz/matricula/internal/config"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/tui"
	"github.com/rgehrsitz/matricula/internal/wizard"
	"github.com/spf13/cobra"
)

// newWizard wires a wizard to the store for submission and uniqueness lookups
func newWizard(cmd *cobra.Command, settings *config.Settings, st api.EnrollmentStore, extra ...wizard.Option) *wizard.Wizard {
	logger := cliLogger(cmd)
	checker := wizard.NewIdentifierChecker(st, settings.DebounceInterval, settings.LookupTimeout)
	checker.SetLogger(logger)

	opts := []wizard.Option{
		wizard.WithIdentifierChecker(checker),
		wizard.WithLogger(logger),
		wizard.WithSubmitTimeout(settings.SubmitTimeout),
	}
	opts = append(opts, extra...)
	return wizard.New(newEngine(cmd, settings), st, opts...)
}

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Run the interactive enrollment intake",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		st, catalog, err := openStore(cmd, settings)
		if err != nil {
			log.Fatal(err)
		}

		w := newWizard(cmd, settings, st)
		model := tui.NewModel(w, referenceSource(cmd, settings, catalog), settings.ReferenceTimeout)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Fatalf("Error running TUI: %v", err)
		}

		if receipt, ok := w.Receipt(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Matrícula %s registrada (token %s)\n", receipt.EnrollmentID, receipt.TransactionToken)
		}
	},
}

var enrollCmd = &cobra.Command{
	Use:   "enroll [snapshot-file]",
	Short: "Submit a complete enrollment form without the interactive wizard",
	Long: `Run a complete enrollment form through every intake gate and submit it.

A failed submission prints its transaction token; pass it back with --token
to retry without creating a second enrollment.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		snapshot, err := config.NewInputParser().LoadSnapshot(args[0])
		if err != nil {
			log.Fatal(err)
		}

		st, catalog, err := openStore(cmd, settings)
		if err != nil {
			log.Fatal(err)
		}

		var extra []wizard.Option
		if token, _ := cmd.Flags().GetString("token"); token != "" {
			extra = append(extra, wizard.WithTokenGenerator(func() string { return token }))
		}
		w := newWizard(cmd, settings, st, extra...)

		if err := w.LoadReferenceData(cmd.Context(), referenceSource(cmd, settings, catalog)); err != nil {
			log.Fatal(err)
		}
		if err := w.LoadSnapshot(*snapshot); err != nil {
			log.Fatal(err)
		}
		if _, err := w.VerifyIdentifier(cmd.Context()); err != nil {
			log.Fatal(err)
		}
		if err := w.GoToStep(len(wizard.Steps) - 1); err != nil {
			log.Fatalf("%v\n%s", err, w.State().Errors())
		}

		receipt, err := w.SubmitForm(cmd.Context())
		if err != nil {
			var subErr *domain.SubmissionError
			if errors.As(err, &subErr) {
				log.Fatalf("%v\nretry with --token %s", err, subErr.TransactionToken)
			}
			log.Fatalf("%v\n%s", err, w.State().Errors())
		}

		out := cmd.OutOrStdout()
		if receipt.Replayed {
			fmt.Fprintln(out, "Submission already recorded; returning the original enrollment")
		}
		fmt.Fprintf(out, "Matrícula: %s\n", receipt.EnrollmentID)
		fmt.Fprintf(out, "Token: %s\n", receipt.TransactionToken)
		fmt.Fprintf(out, "Mensalidade: %s\n", output.FormatCurrency(receipt.FinalValue))
		fmt.Fprintf(out, "Aprovação: %s\n", receipt.ApprovalLevel)
	},
}
