package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rgehrsitz/planforge/internal/duplicates"
)

// CSVFormatter renders each report as a flat CSV table
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (CSVFormatter) Compile(reports []CompileReport) ([]byte, error) {
	var rows [][]string
	for _, r := range reports {
		if r.Error != "" {
			rows = append(rows, []string{r.ScenarioID, "", "", "", "", "", "", "", "", r.Error})
			continue
		}
		if r.Result == nil {
			continue
		}
		for _, ev := range r.Result.Input.Events {
			rows = append(rows, []string{
				r.ScenarioID, ev.ID, string(ev.Type), string(ev.Mode), ev.StartMonth.String(), showEnd(ev.EndMonth),
				ev.MonthlyAmount.StringFixed(2), ev.OneTimeAmount.StringFixed(2), ev.AnnualGrowthRate.String(), "",
			})
		}
		for _, w := range r.Result.Warnings {
			rows = append(rows, []string{r.ScenarioID, w.Ref, "", "", "", "", "", "", "", fmt.Sprintf("%s: %s", w.Code, w.Message)})
		}
	}
	return writeCSV([]string{"Scenario", "Event", "Type", "Mode", "Start", "End", "Monthly", "OneTime", "GrowthRate", "Note"}, rows)
}

func (CSVFormatter) Budget(report BudgetReport) ([]byte, error) {
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{report.ScenarioID, e.Month.String(), e.SourceRuleID, e.MemberID, e.Label, e.AmountSigned.StringFixed(2)})
	}
	return writeCSV([]string{"Scenario", "Month", "Rule", "Member", "Label", "Amount"}, rows)
}

func (CSVFormatter) Clusters(clusters []duplicates.Cluster) ([]byte, error) {
	var rows [][]string
	for _, c := range clusters {
		for _, cand := range c.Candidates {
			rows = append(rows, []string{c.ID, c.Key, cand.ScenarioID, cand.RefID, cand.Definition.Title, cand.Fingerprint})
		}
	}
	return writeCSV([]string{"Cluster", "Key", "Scenario", "Ref", "Title", "Fingerprint"}, rows)
}

func (CSVFormatter) Differences(report DiffReport) ([]byte, error) {
	rows := make([][]string, 0, len(report.Differences))
	for _, d := range report.Differences {
		rows = append(rows, []string{report.ScenarioID, report.RefID, report.BaseID, d.Field, d.Base, d.Target})
	}
	return writeCSV([]string{"Scenario", "Ref", "Base", "Field", "BaseValue", "ScenarioValue"}, rows)
}

func (CSVFormatter) Merge(steps []duplicates.MergeStep) ([]byte, error) {
	var rows [][]string
	for _, s := range steps {
		target := ""
		if s.Transform != nil {
			target = s.Transform.ToRefID
		}
		if len(s.Differences) == 0 {
			rows = append(rows, []string{s.ScenarioID, s.FromRefID, target, "", "", ""})
		}
		for _, d := range s.Differences {
			rows = append(rows, []string{s.ScenarioID, s.FromRefID, target, d.Field, d.Base, d.Target})
		}
	}
	return writeCSV([]string{"Scenario", "From", "To", "Field", "BaseValue", "ScenarioValue"}, rows)
}

func (CSVFormatter) Projection(report ProjectionReport) ([]byte, error) {
	if report.Projection == nil {
		return nil, fmt.Errorf("projection is required")
	}
	rows := make([][]string, 0, len(report.Projection.Months))
	for i, m := range report.Projection.Months {
		rows = append(rows, []string{
			report.ScenarioID, strconv.Itoa(i), m.Month.String(),
			m.Inflow.StringFixed(2), m.Outflow.StringFixed(2), m.Net.StringFixed(2), m.Cash.StringFixed(2),
		})
	}
	return writeCSV([]string{"Scenario", "Offset", "Month", "Inflow", "Outflow", "Net", "Cash"}, rows)
}
