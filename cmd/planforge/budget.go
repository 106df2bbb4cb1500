package main

import (
	"time"

	"github.com/rgehrsitz/planforge/internal/budget"
	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget [plan-file]",
	Short: "Expand a scenario's budget rules into monthly entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		pattern, _ := cmd.Flags().GetString("scenario")
		scenario, err := singleScenario(plan, pattern)
		if err != nil {
			return err
		}
		f, err := formatter(cmd)
		if err != nil {
			return err
		}

		base := compiler.InferBaseMonth(*scenario, plan.EventLibrary, time.Now())
		entries := budget.CompileAllBudgetRulesFrom(*scenario, base)
		logger.Debug().Str("scenario", scenario.ID).Int("entries", len(entries)).Msg("budget compiled")
		return printTo(cmd.OutOrStdout())(f.Budget(output.NewBudgetReport(scenario.ID, entries)))
	},
}

func init() {
	budgetCmd.Flags().StringP("scenario", "s", "", "Scenario id (required when the plan has several)")
	budgetCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")
}
