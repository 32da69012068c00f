package catalog

import (
	"strconv"

	"cinegraph/backend/internal/graph"
)

// Kind is the shape of a Result
type Kind string

const (
	KindScalar  Kind = "scalar"
	KindPair    Kind = "pair"
	KindRecords Kind = "records"
	KindTable   Kind = "table"
	KindFigure  Kind = "figure"
)

// Figure is chart-ready data; rendering happens in the UI
type Figure struct {
	Type   string    `json:"type"` // bar, line, scatter
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y"`
}

// Result is the uniform output of every catalog query
type Result struct {
	ID      int                   `json:"id"`
	Title   string                `json:"title"`
	Kind    Kind                  `json:"kind"`
	Label   string                `json:"label,omitempty"`
	Value   interface{}           `json:"value,omitempty"`
	Columns []string              `json:"columns,omitempty"`
	Rows    [][]string            `json:"rows,omitempty"`
	Records interface{}           `json:"records,omitempty"`
	Figure  *Figure               `json:"figure,omitempty"`
	Graph   *graph.CommunityGraph `json:"graph,omitempty"`
	Empty   bool                  `json:"empty"`
	Warning string                `json:"warning,omitempty"`
}

func (r *Result) scalar(label string, value interface{}) *Result {
	r.Kind = KindScalar
	r.Label = label
	r.Value = value
	return r
}

func (r *Result) pair(label string, value interface{}) *Result {
	r.Kind = KindPair
	r.Label = label
	r.Value = value
	return r
}

func (r *Result) table(columns []string, rows [][]string) *Result {
	r.Kind = KindTable
	r.Columns = columns
	r.Rows = rows
	r.Empty = len(rows) == 0
	return r
}

func (r *Result) empty(warning string) *Result {
	r.Empty = true
	r.Warning = warning
	r.Value = nil
	r.Rows = nil
	r.Records = nil
	r.Figure = nil
	r.Graph = nil
	return r
}

// ============================================================================
// Cell formatting
// ============================================================================

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatOptionalInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func formatInt[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}
