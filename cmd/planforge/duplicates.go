package main

import (
	"fmt"

	"github.com/rgehrsitz/planforge/internal/config"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/duplicates"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [plan-file]",
	Short: "Find events that are near-duplicates across scenarios",
	Long: `Duplicates clusters enabled events whose type, mode, title and rule agree
within tolerance. With --merge and --base it plans retargeting every member of
one cluster onto a single definition, keeping each scenario's own numbers as
overrides; --out writes the merged plan.

Examples:
  planforge duplicates plan.yaml
  planforge duplicates plan.yaml --scenario base --scenario 'alt_*'
  planforge duplicates plan.yaml --merge 5f0c... --base rent --out merged.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		f, err := formatter(cmd)
		if err != nil {
			return err
		}

		var ids []string
		if patterns, _ := cmd.Flags().GetStringSlice("scenario"); len(patterns) > 0 {
			selected, err := selectScenarios(plan, patterns)
			if err != nil {
				return err
			}
			for _, s := range selected {
				ids = append(ids, s.ID)
			}
		}

		detector := duplicates.NewDetector()
		detector.Logger = logging.Zerolog{Logger: logger}
		clusters := detector.FindClusters(plan.Scenarios, plan.EventLibrary, ids)

		clusterID, _ := cmd.Flags().GetString("merge")
		if clusterID == "" {
			return printTo(cmd.OutOrStdout())(f.Clusters(clusters))
		}

		baseID, _ := cmd.Flags().GetString("base")
		if baseID == "" {
			return fmt.Errorf("--base is required with --merge")
		}
		var cluster *duplicates.Cluster
		for i := range clusters {
			if clusters[i].ID == clusterID {
				cluster = &clusters[i]
				break
			}
		}
		if cluster == nil {
			return fmt.Errorf("cluster %s not found", clusterID)
		}

		steps, err := detector.PlanMerge(*cluster, baseID)
		if err != nil {
			return err
		}
		if err := printTo(cmd.OutOrStdout())(f.Merge(steps)); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return nil
		}
		merged, err := duplicates.ApplyMerge(plan, steps)
		if err != nil {
			return err
		}
		if err := config.NewInputParser().SaveToFile(merged, out); err != nil {
			return err
		}
		logger.Info().Str("cluster", cluster.ID).Str("base", baseID).Int("steps", len(steps)).Str("file", out).Msg("merged plan written")
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff [plan-file]",
	Short: "Show how a scenario's event differs from a library definition",
	Long: `Diff resolves --ref in --scenario (overrides included) and compares it with
the --base definition as written in the library. The listed fields are the
overrides that would keep the scenario's numbers after retargeting to --base.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		f, err := formatter(cmd)
		if err != nil {
			return err
		}
		pattern, _ := cmd.Flags().GetString("scenario")
		scenario, err := singleScenario(plan, pattern)
		if err != nil {
			return err
		}
		refID, _ := cmd.Flags().GetString("ref")
		baseID, _ := cmd.Flags().GetString("base")
		if refID == "" || baseID == "" {
			return fmt.Errorf("--ref and --base are required")
		}

		report, err := diffEvent(plan, scenario, refID, baseID)
		if err != nil {
			return err
		}
		return printTo(cmd.OutOrStdout())(f.Differences(report))
	},
}

func diffEvent(plan *domain.Plan, scenario *domain.Scenario, refID, baseID string) (output.DiffReport, error) {
	lib := domain.NewLibrary(plan.EventLibrary)
	idx := scenario.EventRef(refID)
	if idx < 0 {
		return output.DiffReport{}, fmt.Errorf("scenario %s does not reference %s", scenario.ID, refID)
	}
	ref := scenario.EventRefs[idx]
	def, ok := lib.Get(refID)
	if !ok {
		return output.DiffReport{}, fmt.Errorf("event definition %s not found", refID)
	}
	baseDef, ok := lib.Get(baseID)
	if !ok {
		return output.DiffReport{}, fmt.Errorf("event definition %s not found", baseID)
	}

	base := events.ResolveEventRule(baseDef, domain.ScenarioEventRef{RefID: baseID, Enabled: true})
	target := events.ResolveEventRule(def, ref)
	return output.DiffReport{
		ScenarioID:  scenario.ID,
		RefID:       refID,
		BaseID:      baseID,
		Differences: duplicates.ListEventRuleDifferences(base, target),
		Overrides:   duplicates.BuildEventRuleOverrides(base, target),
	}, nil
}

func init() {
	duplicatesCmd.Flags().StringSliceP("scenario", "s", nil, "Limit the scan to these scenario ids or glob patterns")
	duplicatesCmd.Flags().String("merge", "", "Cluster id to plan a merge for")
	duplicatesCmd.Flags().String("base", "", "Definition id the merged cluster keeps")
	duplicatesCmd.Flags().StringP("out", "o", "", "Write the merged plan to this file (.yaml or .json)")
	duplicatesCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")

	diffCmd.Flags().StringP("scenario", "s", "", "Scenario id (required when the plan has several)")
	diffCmd.Flags().String("ref", "", "Event reference in the scenario")
	diffCmd.Flags().String("base", "", "Library definition to compare against")
	diffCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")
}
