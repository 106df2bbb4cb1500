package main

import (
	"github.com/rgehrsitz/planforge/internal/budget"
	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/rgehrsitz/planforge/internal/projection"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project [plan-file]",
	Short: "Compile a scenario and run the cash projection over its horizon",
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

		report, err := projectScenario(cmd, *scenario, plan.EventLibrary)
		if err != nil {
			return err
		}
		return printTo(cmd.OutOrStdout())(f.Projection(report))
	},
}

func projectScenario(cmd *cobra.Command, scenario domain.Scenario, library []domain.EventDefinition) (output.ProjectionReport, error) {
	result, err := compiler.MapScenarioToEngineInput(scenario, library, compileOptions(cmd))
	if err != nil {
		return output.ProjectionReport{}, err
	}
	entries := budget.CompileAllBudgetRulesFrom(scenario, result.Input.BaseMonth)
	proj, err := projection.CashLedger{}.Project(cmd.Context(), result.Input, entries)
	if err != nil {
		return output.ProjectionReport{}, err
	}
	return output.ProjectionReport{ScenarioID: scenario.ID, Projection: proj, Warnings: result.Warnings}, nil
}

func init() {
	projectCmd.Flags().StringP("scenario", "s", "", "Scenario id (required when the plan has several)")
	projectCmd.Flags().Bool("lenient", false, "Turn rejections into warnings (default from PLANFORGE_STRICT)")
	projectCmd.Flags().Bool("strict", false, "Fail on the first rejection")
	projectCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")
}
