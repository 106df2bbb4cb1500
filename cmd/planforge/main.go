package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rgehrsitz/planforge/internal/config"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/output"
	"github.com/rs/zerolog"
	"github.com/ryanuber/go-glob"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// process-wide state set up by the root command before any subcommand runs
var (
	settings = config.DefaultSettings()
	logger   = zerolog.Nop()
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planforge %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Version
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "planforge",
	Short: "Scenario compiler for personal financial plans",
	Long: `Compile the scenarios of a financial plan into forecast input.

planforge resolves each scenario's event references against the shared event
library, expands budget rules into monthly entries, maps positions, finds
duplicate events across scenarios and previews what-if changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		s, err := config.LoadSettings(envFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			s.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			s.LogFormat, _ = cmd.Flags().GetString("log-format")
		}
		settings = s
		logger = logging.New(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [plan-file]",
	Short: "Validate a plan file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan file %s is valid (%d scenarios, %d event definitions)\n",
			args[0], len(plan.Scenarios), len(plan.EventLibrary))
		return nil
	},
}

func loadPlan(filename string) (*domain.Plan, error) {
	plan, err := config.NewInputParser().LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("file", filename).Int("scenarios", len(plan.Scenarios)).Msg("plan loaded")
	return plan, nil
}

// selectScenarios returns the scenarios whose id matches any of the glob
// patterns, in plan order. No patterns selects every scenario.
func selectScenarios(plan *domain.Plan, patterns []string) ([]domain.Scenario, error) {
	if len(patterns) == 0 {
		return plan.Scenarios, nil
	}
	var selected []domain.Scenario
	for _, s := range plan.Scenarios {
		for _, p := range patterns {
			if glob.Glob(p, s.ID) {
				selected = append(selected, s)
				break
			}
		}
	}
	if len(selected) == 0 {
		ids := make([]string, 0, len(plan.Scenarios))
		for _, s := range plan.Scenarios {
			ids = append(ids, s.ID)
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("no scenario matches %s (available: %s)", strings.Join(patterns, ", "), strings.Join(ids, ", "))
	}
	return selected, nil
}

// singleScenario resolves a pattern that must match exactly one scenario
func singleScenario(plan *domain.Plan, pattern string) (*domain.Scenario, error) {
	if pattern == "" {
		if len(plan.Scenarios) == 1 {
			return &plan.Scenarios[0], nil
		}
		return nil, fmt.Errorf("--scenario is required when the plan has %d scenarios", len(plan.Scenarios))
	}
	selected, err := selectScenarios(plan, []string{pattern})
	if err != nil {
		return nil, err
	}
	if len(selected) > 1 {
		return nil, fmt.Errorf("--scenario %s matches %d scenarios", pattern, len(selected))
	}
	s, _ := plan.Scenario(selected[0].ID)
	return s, nil
}

func formatter(cmd *cobra.Command) (output.Formatter, error) {
	name, _ := cmd.Flags().GetString("format")
	return output.NewFormatter(name)
}

// printTo returns a sink for formatter output: printTo(w)(f.Budget(report))
func printTo(w io.Writer) func([]byte, error) error {
	return func(data []byte, err error) error {
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file with PLANFORGE_* settings (skipped if missing)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "human", "Log format (human, json)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(whatifCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
