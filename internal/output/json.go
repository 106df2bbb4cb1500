package output

import (
	"github.com/goccy/go-json"
	"github.com/rgehrsitz/planforge/internal/duplicates"
)

// JSONFormatter renders reports as JSON documents
type JSONFormatter struct {
	Indent bool
}

func (JSONFormatter) Name() string { return "json" }

func (jf JSONFormatter) marshal(v interface{}) ([]byte, error) {
	if !jf.Indent {
		return json.Marshal(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jf JSONFormatter) Compile(reports []CompileReport) ([]byte, error) {
	return jf.marshal(reports)
}

func (jf JSONFormatter) Budget(report BudgetReport) ([]byte, error) {
	return jf.marshal(report)
}

func (jf JSONFormatter) Clusters(clusters []duplicates.Cluster) ([]byte, error) {
	if clusters == nil {
		clusters = []duplicates.Cluster{}
	}
	return jf.marshal(clusters)
}

func (jf JSONFormatter) Differences(report DiffReport) ([]byte, error) {
	return jf.marshal(report)
}

// mergeStepJSON adds the retarget target, which MergeStep keeps out of its own encoding
type mergeStepJSON struct {
	duplicates.MergeStep
	ToRefID string `json:"toRefId"`
}

func (jf JSONFormatter) Merge(steps []duplicates.MergeStep) ([]byte, error) {
	out := make([]mergeStepJSON, 0, len(steps))
	for _, s := range steps {
		row := mergeStepJSON{MergeStep: s}
		if s.Transform != nil {
			row.ToRefID = s.Transform.ToRefID
		}
		out = append(out, row)
	}
	return jf.marshal(out)
}

func (jf JSONFormatter) Projection(report ProjectionReport) ([]byte, error) {
	return jf.marshal(report)
}
