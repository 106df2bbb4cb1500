package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var compileCmd = &cobra.Command{
	Use:   "compile [plan-file]",
	Short: "Compile scenarios into forecast engine input",
	Long: `Compile resolves each selected scenario's events, validates months and
positions, and prints the engine input with any warnings.

Examples:
  planforge compile plan.yaml --scenario base
  planforge compile plan.yaml --all --lenient --format json
  planforge compile plan.yaml --scenario 'retire_*'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		scenarios, err := scenariosFromFlags(cmd, plan)
		if err != nil {
			return err
		}
		f, err := formatter(cmd)
		if err != nil {
			return err
		}

		reports, err := compileScenarios(cmd.Context(), scenarios, plan.EventLibrary, compileOptions(cmd))
		if err != nil {
			return err
		}
		if err := printTo(cmd.OutOrStdout())(f.Compile(reports)); err != nil {
			return err
		}

		failed := 0
		for _, r := range reports {
			if r.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed to compile", failed, len(reports))
		}
		return nil
	},
}

// scenariosFromFlags applies --all and --scenario; with neither, a single-scenario plan is used as is
func scenariosFromFlags(cmd *cobra.Command, plan *domain.Plan) ([]domain.Scenario, error) {
	all, _ := cmd.Flags().GetBool("all")
	patterns, _ := cmd.Flags().GetStringSlice("scenario")
	if all {
		return plan.Scenarios, nil
	}
	if len(patterns) == 0 && len(plan.Scenarios) > 1 {
		return nil, fmt.Errorf("plan has %d scenarios: pass --scenario or --all", len(plan.Scenarios))
	}
	return selectScenarios(plan, patterns)
}

// compileOptions derives strictness from settings, overridden by --lenient or --strict
func compileOptions(cmd *cobra.Command) compiler.Options {
	lenient := !settings.Strict
	if cmd.Flags().Changed("lenient") {
		lenient, _ = cmd.Flags().GetBool("lenient")
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		lenient = false
	}
	return compiler.Options{
		Lenient: lenient,
		Now:     time.Now,
		Logger:  logging.Zerolog{Logger: logger},
	}
}

// compileScenarios compiles scenarios concurrently and returns reports in input order
func compileScenarios(ctx context.Context, scenarios []domain.Scenario, library []domain.EventDefinition, opts compiler.Options) ([]output.CompileReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]output.CompileReport, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range scenarios {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := compiler.MapScenarioToEngineInput(scenarios[i], library, opts)
			reports[i] = output.NewCompileReport(scenarios[i], result, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func init() {
	compileCmd.Flags().StringSliceP("scenario", "s", nil, "Scenario id or glob pattern (repeatable)")
	compileCmd.Flags().Bool("all", false, "Compile every scenario in the plan")
	compileCmd.Flags().Bool("lenient", false, "Turn rejections into warnings (default from PLANFORGE_STRICT)")
	compileCmd.Flags().Bool("strict", false, "Fail on the first rejection")
	compileCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")
}
