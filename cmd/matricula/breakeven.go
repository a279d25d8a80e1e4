package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/rgehrsitz/matricula/internal/breakeven"
	"github.com/rgehrsitz/matricula/internal/config"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var breakEvenCmd = &cobra.Command{
	Use:   "breakeven [request-file]",
	Short: "Find the discount percentage that meets a pricing goal",
	Long: `Search the applied percentage of one discount, or of every active
discount when --discount is omitted, for the value that meets a goal:

  match_final          smallest percentage bringing the monthly value to --target
  max_within_approval  largest percentage keeping approval at --max-approval
  max_within_cap       largest percentage the track CAP accepts

Examples:
  matricula breakeven quote.yaml --discount irm --goal match_final --target 850
  matricula breakeven quote.yaml --goal max_within_approval --max-approval coordinator
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatal(err)
		}

		base, err := config.NewInputParser().LoadQuoteRequest(args[0])
		if err != nil {
			log.Fatal(err)
		}

		refs, err := loadReference(cmd, settings, referenceSource(cmd, settings, nil))
		if err != nil {
			log.Fatal(err)
		}

		goal, _ := cmd.Flags().GetString("goal")
		discountID, _ := cmd.Flags().GetString("discount")
		maxApproval, _ := cmd.Flags().GetString("max-approval")
		req := breakeven.OptimizationRequest{
			Base:        *base,
			DiscountID:  discountID,
			Goal:        breakeven.OptimizationGoal(goal),
			MaxApproval: domain.ApprovalTier(maxApproval),
		}
		if target, _ := cmd.Flags().GetString("target"); target != "" {
			req.TargetFinal, err = decimal.NewFromString(strings.ReplaceAll(target, ",", "."))
			if err != nil {
				log.Fatalf("invalid target %q: %v", target, err)
			}
		} else if req.Goal == breakeven.GoalMatchFinal {
			log.Fatal("--target is required for the match_final goal")
		}

		solver := breakeven.NewDefaultSolver(newEngine(cmd, settings))
		outputFormat, _ := cmd.Flags().GetString("format")
		table := &breakeven.TableFormatter{}
		js := &breakeven.JSONFormatter{Pretty: true}

		var result string
		if discountID == "" {
			multi, err := solver.OptimizeAllDiscounts(cmd.Context(), refs, req)
			if err != nil {
				log.Fatal(err)
			}
			if outputFormat == "json" {
				result, err = js.FormatMultiDimensional(multi)
			} else {
				result = table.FormatMultiDimensional(multi)
			}
			if err != nil {
				log.Fatal(err)
			}
		} else {
			single, err := solver.Optimize(cmd.Context(), refs, req)
			if err != nil {
				log.Fatal(err)
			}
			if outputFormat == "json" {
				result, err = js.Format(single)
			} else {
				result = table.Format(single)
			}
			if err != nil {
				log.Fatal(err)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), result)
	},
}
