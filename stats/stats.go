// Package stats summarizes factor tables column by column.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yearone/factor-pool/factor"
)

// ColumnSummary describes the non-null values of one factor column.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Nulls  int     `json:"nulls"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	First  string  `json:"first,omitempty"` // first key with a value
	Last   string  `json:"last,omitempty"`  // last key with a value
}

// Describe returns one summary per column, in column order. Moments of a
// column without values are zero; StdDev needs at least two values.
func Describe(t *factor.Table) []ColumnSummary {
	sorted := t.Clone()
	sorted.SortByIndex()

	out := make([]ColumnSummary, 0, len(sorted.Columns))
	for _, c := range sorted.Columns {
		out = append(out, describeColumn(c, sorted.Index, sorted.Data[c]))
	}
	return out
}

func describeColumn(name string, index []factor.Date, vals []factor.Value) ColumnSummary {
	s := ColumnSummary{Column: name}
	xs := make([]float64, 0, len(vals))
	for i, v := range vals {
		if !v.IsFinite() {
			s.Nulls++
			continue
		}
		if len(xs) == 0 {
			s.First = index[i].String()
		}
		s.Last = index[i].String()
		xs = append(xs, v.Float64)
	}

	s.Count = len(xs)
	if s.Count == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if s.Count > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	return s
}
