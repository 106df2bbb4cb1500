package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/planforge/internal/compiler"
	"github.com/rgehrsitz/planforge/internal/duplicates"
	"github.com/rgehrsitz/planforge/internal/month"
)

// ConsoleFormatter renders reports as styled tables for a terminal
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (cf ConsoleFormatter) Compile(reports []CompileReport) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range reports {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintln(&buf, TitleStyle.Render(scenarioHeading(r.ScenarioID, r.ScenarioName)))
		if r.Error != "" {
			fmt.Fprintln(&buf, ErrorStyle.Render("error: "+r.Error))
			continue
		}
		if r.Result == nil {
			continue
		}
		in := r.Result.Input
		fmt.Fprintln(&buf, SubtitleStyle.Render(fmt.Sprintf("base %s, %d months, initial cash %s",
			in.BaseMonth, in.HorizonMonths, FormatAmount(in.InitialCash))))

		if len(in.Events) > 0 {
			rows := make([][]string, 0, len(in.Events))
			for _, ev := range in.Events {
				rows = append(rows, []string{
					ev.ID, string(ev.Type), string(ev.Mode), ev.StartMonth.String(), showEnd(ev.EndMonth),
					FormatAmount(ev.MonthlyAmount), FormatAmount(ev.OneTimeAmount), FormatRate(ev.AnnualGrowthRate),
					strconv.Itoa(len(ev.Schedule)),
				})
			}
			fmt.Fprintln(&buf, newTable(
				[]string{"Event", "Type", "Mode", "Start", "End", "Monthly", "One-time", "Growth", "Sched"},
				rows, 5, 6, 7, 8))
		} else {
			fmt.Fprintln(&buf, SubtitleStyle.Render("no events"))
		}

		if in.Positions != nil {
			fmt.Fprintln(&buf, positionsTable(in.Positions))
		}
		writeWarnings(&buf, r.Result.Warnings)
	}
	return buf.Bytes(), nil
}

func positionsTable(p *compiler.EnginePositions) string {
	var rows [][]string
	for _, h := range p.Homes {
		detail := "no mortgage"
		if h.Mortgage != nil {
			detail = fmt.Sprintf("mortgage %s at %s for %d months",
				FormatAmount(h.Mortgage.Principal), FormatRate(h.Mortgage.AnnualRate), h.Mortgage.TermMonths)
		}
		rows = append(rows, []string{"home", h.ID, h.PurchaseMonth.String(), FormatAmount(h.PurchasePrice), detail})
	}
	for _, l := range p.Loans {
		rows = append(rows, []string{"loan", l.ID, l.StartMonth.String(), FormatAmount(l.Principal),
			fmt.Sprintf("%s/month for %d months", FormatAmount(l.MonthlyPayment), l.TermMonths)})
	}
	for _, inv := range p.Investments {
		rows = append(rows, []string{"investment", inv.ID, inv.StartMonth.String(), FormatAmount(inv.InitialValue),
			fmt.Sprintf("%s/month at %s", FormatAmount(inv.MonthlyContribution), FormatRate(inv.AnnualReturnRate))})
	}
	for _, c := range p.Cars {
		rows = append(rows, []string{"car", c.ID, c.PurchaseMonth.String(), FormatAmount(c.PurchasePrice),
			fmt.Sprintf("depreciates %s", FormatRate(c.AnnualDepreciationRate))})
	}
	return newTable([]string{"Position", "ID", "From", "Value", "Terms"}, rows, 3)
}

func writeWarnings(buf *bytes.Buffer, warnings []compiler.Warning) {
	if len(warnings) == 0 {
		fmt.Fprintln(buf, SuccessStyle.Render("no warnings"))
		return
	}
	fmt.Fprintln(buf, WarningStyle.Render(fmt.Sprintf("%d warning(s):", len(warnings))))
	for _, w := range warnings {
		line := fmt.Sprintf("  [%s] %s", w.Code, w.Message)
		if w.Ref != "" {
			line += " (" + w.Ref + ")"
		}
		fmt.Fprintln(buf, WarningStyle.Render(line))
	}
}

func (cf ConsoleFormatter) Budget(report BudgetReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, TitleStyle.Render("BUDGET "+report.ScenarioID))
	if len(report.Totals) == 0 {
		fmt.Fprintln(&buf, SubtitleStyle.Render("no budget entries in the horizon"))
		return buf.Bytes(), nil
	}
	rows := make([][]string, 0, len(report.Totals))
	for _, t := range report.Totals {
		rows = append(rows, []string{t.Month.String(), FormatAmount(t.Total), strconv.Itoa(t.Count)})
	}
	fmt.Fprintln(&buf, newTable([]string{"Month", "Total", "Entries"}, rows, 1, 2))
	return buf.Bytes(), nil
}

func (cf ConsoleFormatter) Clusters(clusters []duplicates.Cluster) ([]byte, error) {
	var buf bytes.Buffer
	if len(clusters) == 0 {
		fmt.Fprintln(&buf, SuccessStyle.Render("no duplicate events found"))
		return buf.Bytes(), nil
	}
	fmt.Fprintln(&buf, TitleStyle.Render(fmt.Sprintf("%d DUPLICATE CLUSTER(S)", len(clusters))))
	for _, c := range clusters {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, SubtitleStyle.Render(fmt.Sprintf("%s  %s", c.ID, c.Key)))
		rows := make([][]string, 0, len(c.Candidates))
		for _, cand := range c.Candidates {
			rows = append(rows, []string{cand.ScenarioID, cand.RefID, cand.Definition.Title, cand.NormalizedTitle})
		}
		fmt.Fprintln(&buf, newTable([]string{"Scenario", "Ref", "Title", "Normalized"}, rows))
	}
	return buf.Bytes(), nil
}

func (cf ConsoleFormatter) Differences(report DiffReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, TitleStyle.Render(fmt.Sprintf("%s/%s vs %s", report.ScenarioID, report.RefID, report.BaseID)))
	writeDifferences(&buf, report.Differences)
	return buf.Bytes(), nil
}

func writeDifferences(buf *bytes.Buffer, diffs []duplicates.Difference) {
	if len(diffs) == 0 {
		fmt.Fprintln(buf, SuccessStyle.Render("rules match within tolerance"))
		return
	}
	rows := make([][]string, 0, len(diffs))
	for _, d := range diffs {
		rows = append(rows, []string{d.Field, d.Base, d.Target})
	}
	fmt.Fprintln(buf, newTable([]string{"Field", "Base", "Scenario"}, rows))
}

func (cf ConsoleFormatter) Merge(steps []duplicates.MergeStep) ([]byte, error) {
	var buf bytes.Buffer
	if len(steps) == 0 {
		fmt.Fprintln(&buf, SubtitleStyle.Render("nothing to merge"))
		return buf.Bytes(), nil
	}
	fmt.Fprintln(&buf, TitleStyle.Render(fmt.Sprintf("MERGE PLAN (%d step(s))", len(steps))))
	for _, s := range steps {
		target := ""
		if s.Transform != nil {
			target = s.Transform.ToRefID
		}
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "%s: %s -> %s\n", s.ScenarioID, s.FromRefID, target)
		writeDifferences(&buf, s.Differences)
	}
	return buf.Bytes(), nil
}

func (cf ConsoleFormatter) Projection(report ProjectionReport) ([]byte, error) {
	var buf bytes.Buffer
	p := report.Projection
	if p == nil {
		return nil, fmt.Errorf("projection is required")
	}
	fmt.Fprintln(&buf, TitleStyle.Render("CASH PROJECTION "+report.ScenarioID))
	fmt.Fprintln(&buf, SubtitleStyle.Render(fmt.Sprintf("from %s, initial cash %s", p.BaseMonth, FormatAmount(p.InitialCash))))

	totals := p.Totals()
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Year, FormatAmount(t.Inflow), FormatAmount(t.Outflow),
			FormatAmount(t.Inflow.Sub(t.Outflow)), FormatAmount(t.EndCash)})
	}
	fmt.Fprintln(&buf, newTable([]string{"Year", "Inflow", "Outflow", "Net", "End cash"}, rows, 1, 2, 3, 4))

	fmt.Fprintf(&buf, "Final cash: %s\n", FormatAmount(p.Final()))
	if low, ok := p.LowestCash(); ok {
		line := fmt.Sprintf("Lowest cash: %s in %s", FormatAmount(low.Cash), low.Month)
		if low.Cash.IsNegative() {
			line = ErrorStyle.Render(line)
		}
		fmt.Fprintln(&buf, line)
	}
	if len(report.Warnings) > 0 {
		writeWarnings(&buf, report.Warnings)
	}
	return buf.Bytes(), nil
}

func scenarioHeading(id, name string) string {
	if name == "" || name == id {
		return strings.ToUpper(id)
	}
	return fmt.Sprintf("%s (%s)", strings.ToUpper(id), name)
}

func showEnd(m *month.Month) string {
	if m == nil {
		return "open"
	}
	return m.String()
}
