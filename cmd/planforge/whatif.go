package main

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/rgehrsitz/planforge/internal/transform"
	"github.com/spf13/cobra"
)

// variant is a transformed copy of the base scenario
type variant struct {
	label    string
	scenario *domain.Scenario
}

var whatifCmd = &cobra.Command{
	Use:   "whatif [plan-file]",
	Short: "Compile a scenario against what-if templates and transforms",
	Long: `Whatif applies each template in --with to its own copy of the base scenario,
and all --transform specs together to one more copy, then compiles every
variant next to the base.

Examples:
  planforge whatif plan.yaml --scenario base --with lean,horizon_10yr
  planforge whatif plan.yaml --scenario base --transform override_event:ref=rent,monthly_amount=2100
  planforge whatif plan.yaml --scenario base --with freeze_growth --project
  planforge whatif plan.yaml --scenario base --list-templates`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		pattern, _ := cmd.Flags().GetString("scenario")
		base, err := singleScenario(plan, pattern)
		if err != nil {
			return err
		}
		registry := transform.CreateBuiltInTemplates(base, domain.NewLibrary(plan.EventLibrary))

		if list, _ := cmd.Flags().GetBool("list-templates"); list {
			fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(registry))
			return nil
		}

		templatesStr, _ := cmd.Flags().GetString("with")
		specs, _ := cmd.Flags().GetStringArray("transform")
		variants, err := buildVariants(base, registry, transform.ParseTemplateList(templatesStr), specs)
		if err != nil {
			return err
		}
		if len(variants) == 1 {
			return fmt.Errorf("--with or --transform is required (or use --list-templates)")
		}

		f, err := formatter(cmd)
		if err != nil {
			return err
		}

		if project, _ := cmd.Flags().GetBool("project"); project {
			for _, v := range variants {
				report, err := projectScenario(cmd, *v.scenario, plan.EventLibrary)
				if err != nil {
					return fmt.Errorf("%s: %w", v.label, err)
				}
				report.ScenarioID = v.label
				if err := printTo(cmd.OutOrStdout())(f.Projection(report)); err != nil {
					return err
				}
			}
			return nil
		}

		opts := compileOptions(cmd)
		reports := make([]output.CompileReport, 0, len(variants))
		for _, v := range variants {
			result, err := compiler.MapScenarioToEngineInput(*v.scenario, plan.EventLibrary, opts)
			report := output.NewCompileReport(*v.scenario, result, err)
			report.ScenarioID = v.label
			reports = append(reports, report)
		}
		return printTo(cmd.OutOrStdout())(f.Compile(reports))
	},
}

// buildVariants returns the base followed by one variant per template and,
// when specs are given, one variant with every spec applied in order
func buildVariants(base *domain.Scenario, registry *transform.TemplateRegistry, templates, specs []string) ([]variant, error) {
	variants := []variant{{label: base.ID, scenario: base}}

	for _, name := range templates {
		tmpl, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown template %q (available: %v)", name, registry.List())
		}
		s, err := transform.ApplyTemplate(base, tmpl)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		logger.Debug().Str("scenario", base.ID).Str("template", tmpl.Name).Int("transforms", len(tmpl.Transforms)).Msg("template applied")
		variants = append(variants, variant{label: base.ID + "+" + tmpl.Name, scenario: s})
	}

	if len(specs) > 0 {
		transforms := transform.NewTransformRegistry()
		var list []transform.ScenarioTransform
		for _, spec := range specs {
			t, err := transforms.ParseTransformSpec(spec)
			if err != nil {
				return nil, err
			}
			list = append(list, t)
		}
		s, err := transform.ApplyTransforms(base, list)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant{label: base.ID + "+custom", scenario: s})
	}
	return variants, nil
}

func init() {
	whatifCmd.Flags().StringP("scenario", "s", "", "Base scenario id (required when the plan has several)")
	whatifCmd.Flags().String("with", "", "Comma-separated list of templates, each compiled as its own variant")
	whatifCmd.Flags().StringArrayP("transform", "t", nil, "Transform spec name:key=value,... (repeatable, applied together)")
	whatifCmd.Flags().Bool("list-templates", false, "List the templates available for the scenario")
	whatifCmd.Flags().Bool("project", false, "Run the cash projection for every variant instead of printing engine input")
	whatifCmd.Flags().Bool("lenient", false, "Turn rejections into warnings (default from PLANFORGE_STRICT)")
	whatifCmd.Flags().Bool("strict", false, "Fail on the first rejection")
	whatifCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")
}
