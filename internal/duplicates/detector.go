// Package duplicates finds near-identical recurring events referenced from
// different scenarios and plans how to merge them onto one shared definition.
package duplicates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rgehrsitz/planforge/internal/domain"
	"github.com/rgehrsitz/planforge/internal/events"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/tolerance"
)

// clusterNamespace seeds the deterministic cluster ids
var clusterNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("planforge:duplicate-cluster"))

// Candidate is one scenario's resolved event reference
type Candidate struct {
	ScenarioID      string                  `json:"scenarioId"`
	ScenarioName    string                  `json:"scenarioName"`
	RefID           string                  `json:"refId"`
	Definition      domain.EventDefinition  `json:"definition"`
	Ref             domain.ScenarioEventRef `json:"ref"`
	Rule            events.EffectiveRule    `json:"-"`
	NormalizedTitle string                  `json:"normalizedTitle"`
	Fingerprint     string                  `json:"fingerprint"`
}

// Cluster is a set of candidates judged to be the same real-world obligation.
// Key is "type:mode"; ID is stable for the same set of scenario/ref pairs.
type Cluster struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Candidates []Candidate `json:"candidates"`
}

// RefIDs returns the distinct event references in the cluster, in first-seen order
func (c Cluster) RefIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, cand := range c.Candidates {
		if !seen[cand.RefID] {
			seen[cand.RefID] = true
			ids = append(ids, cand.RefID)
		}
	}
	return ids
}

// Detector holds the comparison bands used for clustering and diffing
type Detector struct {
	Amount     tolerance.Tolerance
	Growth     tolerance.Tolerance
	MonthSlack int
	Logger     logging.Logger
}

// NewDetector returns a detector with the default bands: amounts within 100
// or 10%, growth within 1 point or 10%, months within 1.
func NewDetector() *Detector {
	return &Detector{
		Amount:     tolerance.Amount,
		Growth:     tolerance.GrowthPct,
		MonthSlack: 1,
	}
}

// FindDuplicateClusters scans the selected scenarios with the default detector
func FindDuplicateClusters(scenarios []domain.Scenario, library []domain.EventDefinition, scenarioIDs []string) []Cluster {
	return NewDetector().FindClusters(scenarios, library, scenarioIDs)
}

// FindClusters clusters the enabled cashflow references of the scenarios named
// in scenarioIDs, or of every scenario when scenarioIDs is empty. Candidates
// are compared only with the first member of each existing cluster in their
// type:mode bucket; the first match wins. Clusters spanning fewer than two
// distinct references are dropped.
func (d *Detector) FindClusters(scenarios []domain.Scenario, library []domain.EventDefinition, scenarioIDs []string) []Cluster {
	log := logging.OrNop(d.Logger)
	candidates := d.Candidates(scenarios, library, scenarioIDs)

	var ordered []*Cluster
	buckets := make(map[string][]*Cluster)
	for _, cand := range candidates {
		key := bucketKey(cand)
		placed := false
		for _, cl := range buckets[key] {
			if d.similar(cl.Candidates[0], cand) {
				cl.Candidates = append(cl.Candidates, cand)
				placed = true
				break
			}
		}
		if !placed {
			cl := &Cluster{Key: key, Candidates: []Candidate{cand}}
			buckets[key] = append(buckets[key], cl)
			ordered = append(ordered, cl)
		}
	}

	var clusters []Cluster
	for _, cl := range ordered {
		if len(cl.RefIDs()) < 2 {
			continue
		}
		cl.ID = clusterID(cl.Candidates)
		clusters = append(clusters, *cl)
	}
	log.Debugf("duplicate scan: %d candidates, %d clusters", len(candidates), len(clusters))
	return clusters
}

// Candidates resolves every enabled cashflow reference of the selected scenarios
func (d *Detector) Candidates(scenarios []domain.Scenario, library []domain.EventDefinition, scenarioIDs []string) []Candidate {
	lib := domain.NewLibrary(library)
	selected := make(map[string]bool, len(scenarioIDs))
	for _, id := range scenarioIDs {
		selected[id] = true
	}

	var out []Candidate
	for _, s := range scenarios {
		if len(selected) > 0 && !selected[s.ID] {
			continue
		}
		resolved, _ := events.ResolveScenario(s, lib)
		for _, r := range resolved {
			title := NormalizeTitle(r.Definition.Title)
			out = append(out, Candidate{
				ScenarioID:      s.ID,
				ScenarioName:    s.Name,
				RefID:           r.Ref.RefID,
				Definition:      r.Definition,
				Ref:             r.Ref,
				Rule:            r.Rule,
				NormalizedTitle: title,
				Fingerprint:     Fingerprint(r.Definition.Type, title, r.Rule),
			})
		}
	}
	return out
}

func bucketKey(c Candidate) string {
	return string(c.Definition.Type) + ":" + string(c.Rule.Mode())
}

func clusterID(cands []Candidate) string {
	members := make([]string, 0, len(cands))
	for _, c := range cands {
		members = append(members, c.ScenarioID+"/"+c.RefID)
	}
	sort.Strings(members)
	return uuid.NewSHA1(clusterNamespace, []byte(strings.Join(members, "\n"))).String()
}

// Fingerprint summarizes an effective rule as type|mode|title|signature
func Fingerprint(t domain.EventType, normalizedTitle string, rule events.EffectiveRule) string {
	return strings.Join([]string{string(t), string(rule.Mode()), normalizedTitle, signature(rule)}, "|")
}

func signature(rule events.EffectiveRule) string {
	end := "open"
	if e := rule.End(); e != nil {
		end = e.String()
	}
	switch r := rule.(type) {
	case events.ParamsRule:
		return fmt.Sprintf("%s..%s:%s:%s:%s", r.StartMonth, end,
			r.MonthlyAmount.StringFixed(2), r.OneTimeAmount.StringFixed(2), r.AnnualGrowthPct.StringFixed(2))
	case events.ScheduleRule:
		return fmt.Sprintf("n=%d:sum=%s", len(r.Entries), r.Total().StringFixed(2))
	}
	return ""
}

// similar is the clustering predicate: same type, similar title, similar rule
func (d *Detector) similar(a, b Candidate) bool {
	if a.Definition.Type != b.Definition.Type {
		return false
	}
	if !titlesSimilar(a.NormalizedTitle, b.NormalizedTitle) {
		return false
	}
	return d.rulesSimilar(a.Rule, b.Rule)
}

func (d *Detector) rulesSimilar(a, b events.EffectiveRule) bool {
	switch ra := a.(type) {
	case events.ParamsRule:
		rb, ok := b.(events.ParamsRule)
		return ok && d.paramsSimilar(ra, rb)
	case events.ScheduleRule:
		rb, ok := b.(events.ScheduleRule)
		return ok && d.schedulesSimilar(ra, rb)
	}
	return false
}

func (d *Detector) paramsSimilar(a, b events.ParamsRule) bool {
	return tolerance.MonthsWithin(a.StartMonth, b.StartMonth, d.MonthSlack) &&
		tolerance.OptionalMonthsWithin(a.EndMonth, b.EndMonth, d.MonthSlack) &&
		d.Amount.Within(a.MonthlyAmount, b.MonthlyAmount) &&
		d.Amount.Within(a.OneTimeAmount, b.OneTimeAmount) &&
		d.Growth.Within(a.AnnualGrowthPct, b.AnnualGrowthPct)
}

// schedulesHeadSize is how many leading entries are compared pairwise
const schedulesHeadSize = 4

func (d *Detector) schedulesSimilar(a, b events.ScheduleRule) bool {
	if diff := len(a.Entries) - len(b.Entries); diff < -2 || diff > 2 {
		return false
	}
	if !d.Amount.Within(a.Total(), b.Total()) || !d.Amount.Within(a.Average(), b.Average()) {
		return false
	}
	ha, hb := sortedEntries(a.Entries), sortedEntries(b.Entries)
	n := min(schedulesHeadSize, len(ha), len(hb))
	for i := 0; i < n; i++ {
		if !d.Amount.Within(ha[i].Amount, hb[i].Amount) {
			return false
		}
	}
	return true
}

// sortedEntries returns a chronologically sorted copy. Malformed months sort last.
func sortedEntries(entries []domain.ScheduleEntry) []domain.ScheduleEntry {
	out := append([]domain.ScheduleEntry{}, entries...)
	sort.SliceStable(out, func(i, j int) bool {
		ii, iok := out[i].Month.Index()
		ji, jok := out[j].Month.Index()
		if iok != jok {
			return iok
		}
		return iok && ii < ji
	})
	return out
}
