// Package optimize chooses a storage representation for text columns.
//
// A text column whose distinct ratio (distinct values over rows) is strictly
// below a threshold is rewritten as a dictionary encoded categorical column.
// Every other column is left as is.
package optimize

import (
	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// DefaultThreshold is the distinct ratio below which text becomes categorical.
const DefaultThreshold = 0.5

// Options controls the classifier.
type Options struct {
	// Threshold is compared with a strict less-than.
	Threshold float64
	// CountMissingAsDistinct counts missing values as one extra distinct value.
	CountMissingAsDistinct bool
}

// DefaultOptions returns the classifier defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:              DefaultThreshold,
		CountMissingAsDistinct: true,
	}
}

// Decision describes what happened to a single column.
type Decision struct {
	Column        string
	Ratio         float64
	Distinct      int
	Rows          int
	ToCategorical bool
}

// Report lists the decisions taken for every text column.
type Report struct {
	Decisions []Decision
}

// Converted returns the names of the columns that became categorical.
func (r *Report) Converted() []string {
	var names []string
	for _, d := range r.Decisions {
		if d.ToCategorical {
			names = append(names, d.Column)
		}
	}
	return names
}

// DistinctCount counts the distinct values of a column. When countMissing is
// set, missing values count as a single extra value.
func DistinctCount(c *table.Column, countMissing bool) int {
	seen := make(map[interface{}]struct{})
	missing := false
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v == nil {
			missing = true
			continue
		}
		seen[v] = struct{}{}
	}
	n := len(seen)
	if missing && countMissing {
		n++
	}
	return n
}

// DistinctRatio returns DistinctCount divided by max(rows, 1).
func DistinctRatio(c *table.Column, countMissing bool) float64 {
	rows := c.Len()
	if rows < 1 {
		rows = 1
	}
	return float64(DistinctCount(c, countMissing)) / float64(rows)
}

// ShouldCategorize reports whether a ratio qualifies for dictionary encoding.
func ShouldCategorize(ratio, threshold float64) bool {
	return ratio < threshold
}

// Apply returns a table where low-cardinality text columns are categorical.
// It never modifies t. Applying it to its own output is a no-op.
func Apply(t *table.Table, opts Options) (*table.Table, *Report, error) {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, nil, errors.Newf(errors.ErrorTypeConfig,
			"threshold must be in (0, 1], got %v", opts.Threshold)
	}

	report := &Report{}
	out := t
	for i, col := range t.Columns() {
		if !col.IsText() {
			continue
		}

		distinct := DistinctCount(col, opts.CountMissingAsDistinct)
		ratio := DistinctRatio(col, opts.CountMissingAsDistinct)
		decision := Decision{
			Column:        col.Name(),
			Ratio:         ratio,
			Distinct:      distinct,
			Rows:          col.Len(),
			ToCategorical: ShouldCategorize(ratio, opts.Threshold),
		}
		report.Decisions = append(report.Decisions, decision)

		if !decision.ToCategorical {
			continue
		}

		cat, err := col.ToCategorical()
		if err != nil {
			return nil, nil, err
		}
		if out, err = out.WithColumn(i, cat); err != nil {
			return nil, nil, err
		}
	}

	return out, report, nil
}
