// Package dataset is the data-access layer of the dashboard: it loads
// tabular data from bundled files, remote URLs or uploads into an in-memory
// table and partitions its columns for the widget layer. It knows nothing
// about HTTP handlers or charts.
package dataset

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NoneColumn is the sentinel appended to the text-column list so the widget
// layer can offer "no color grouping" as a selectable option.
const NoneColumn = "none"

// ErrNotTabular reports that an input could be parsed neither as CSV nor as
// an Excel workbook. The web layer renders it as the upload prompt.
var ErrNotTabular = errors.New("dataset: input is not valid CSV or Excel")

// Table is an immutable view over a parsed dataframe. All dashboard branches
// consume data through it.
type Table struct {
	df dataframe.DataFrame
}

// FromDataFrame wraps a gota dataframe, propagating its parse error if any.
func FromDataFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: %w", df.Err)
	}
	if df.Ncol() == 0 {
		return nil, errors.New("dataset: table has no columns")
	}
	return &Table{df: df}, nil
}

// Columns returns all column names in order.
func (t *Table) Columns() []string {
	return t.df.Names()
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return t.df.Nrow()
}

// NumericColumns returns the names of int and float columns. Together with
// TextColumns it forms a disjoint partition of Columns.
func (t *Table) NumericColumns() []string {
	names := t.df.Names()
	types := t.df.Types()
	var out []string
	for i, typ := range types {
		if typ == series.Int || typ == series.Float {
			out = append(out, names[i])
		}
	}
	return out
}

// TextColumns returns the names of all non-numeric columns.
func (t *Table) TextColumns() []string {
	names := t.df.Names()
	types := t.df.Types()
	var out []string
	for i, typ := range types {
		if typ != series.Int && typ != series.Float {
			out = append(out, names[i])
		}
	}
	return out
}

// ColorOptions returns the text columns plus the NoneColumn sentinel,
// matching the option list the visualizer offers for color grouping.
func (t *Table) ColorOptions() []string {
	return append(t.TextColumns(), NoneColumn)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Unique returns the distinct values of a column in first-seen order.
func (t *Table) Unique(col string) ([]string, error) {
	s := t.df.Col(col)
	if s.Err != nil {
		return nil, fmt.Errorf("dataset: column %q: %w", col, s.Err)
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range s.Records() {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// FilterEqual returns the subset of rows whose column equals value.
func (t *Table) FilterEqual(col, value string) (*Table, error) {
	filtered := t.df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: value})
	if filtered.Err != nil {
		return nil, fmt.Errorf("dataset: filter %s == %q: %w", col, value, filtered.Err)
	}
	return &Table{df: filtered}, nil
}

// Float returns a numeric column as float64 values. Text and bool columns
// are rejected rather than silently converted to NaN.
func (t *Table) Float(col string) ([]float64, error) {
	s := t.df.Col(col)
	if s.Err != nil {
		return nil, fmt.Errorf("dataset: column %q: %w", col, s.Err)
	}
	if s.Type() != series.Int && s.Type() != series.Float {
		return nil, fmt.Errorf("dataset: column %q is %s, not numeric", col, s.Type())
	}
	return s.Float(), nil
}

// Strings returns a column as its string records.
func (t *Table) Strings(col string) ([]string, error) {
	s := t.df.Col(col)
	if s.Err != nil {
		return nil, fmt.Errorf("dataset: column %q: %w", col, s.Err)
	}
	return s.Records(), nil
}

// Rows returns the header and up to limit data rows for raw-table views.
// limit <= 0 returns everything.
func (t *Table) Rows(limit int) (header []string, rows [][]string) {
	records := t.df.Records()
	if len(records) == 0 {
		return nil, nil
	}
	header = records[0]
	rows = records[1:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return header, rows
}

// WithFloatColumn returns a copy of the table with a float column added or
// replaced. The live dashboard uses this for its derived columns.
func (t *Table) WithFloatColumn(name string, values []float64) (*Table, error) {
	if len(values) != t.df.Nrow() {
		return nil, fmt.Errorf("dataset: column %q has %d values for %d rows", name, len(values), t.df.Nrow())
	}
	mutated := t.df.Mutate(series.New(values, series.Float, name))
	if mutated.Err != nil {
		return nil, fmt.Errorf("dataset: mutate %q: %w", name, mutated.Err)
	}
	return &Table{df: mutated}, nil
}
