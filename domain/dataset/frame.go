package dataset

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gograde/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Frame is a rectangular, named-column table of student records.
// Every cell is held as text; numeric views are parsed on demand so that
// a bad value surfaces as a DomainError naming its column and row.
type Frame struct {
	df dataframe.DataFrame
}

// FromDataFrame wraps a gota DataFrame, surfacing its deferred error
func FromDataFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Frame{df: df}, nil
}

// FromRecords builds a frame from a header row followed by data rows.
// A header with no data rows gives a frame with zero rows.
func FromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	if len(records) == 1 {
		return Empty(records[0])
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	return FromDataFrame(df)
}

// Empty returns a frame with the given columns and no rows
func Empty(columns []string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns")
	}
	cols := make([]series.Series, len(columns))
	for i, name := range columns {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return FromDataFrame(dataframe.New(cols...))
}

// Columns returns the column names in order
func (f *Frame) Columns() []string {
	return f.df.Names()
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return f.df.Nrow()
}

// Has reports whether the named column exists
func (f *Frame) Has(name string) bool {
	for _, c := range f.df.Names() {
		if c == name {
			return true
		}
	}
	return false
}

// Missing returns the subset of names that are not columns, in the given order
func (f *Frame) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Strings returns the raw cell text of a column
func (f *Frame) Strings(name string) ([]string, error) {
	if !f.Has(name) {
		return nil, errors.SchemaError([]string{name})
	}
	return f.df.Col(name).Records(), nil
}

// Floats parses a column as numbers
func (f *Frame) Floats(name string) ([]float64, error) {
	raw, err := f.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, ok := ParseNumber(s)
		if !ok {
			return nil, errors.DomainError(name, s).With("row", i)
		}
		out[i] = v
	}
	return out, nil
}

// ParseNumber parses a trimmed, finite decimal value
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Select projects the frame onto names, in that order
func (f *Frame) Select(names []string) (*Frame, error) {
	if missing := f.Missing(names); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}
	return FromDataFrame(f.df.Select(names))
}

// Subset keeps the given row indexes, in that order. At least one index is required.
func (f *Frame) Subset(rows []int) (*Frame, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty row subset")
	}
	return FromDataFrame(f.df.Subset(rows))
}

// WithIntColumn returns a frame with an integer column appended,
// or replaced in place when a column of that name already exists
func (f *Frame) WithIntColumn(name string, values []int) (*Frame, error) {
	if len(values) != f.Len() {
		return nil, fmt.Errorf("column %s has %d values for %d rows", name, len(values), f.Len())
	}
	return FromDataFrame(f.df.Mutate(series.New(values, series.Int, name)))
}

// WriteCSV writes the frame as comma-separated text with a header row
func (f *Frame) WriteCSV(w io.Writer) error {
	return f.df.WriteCSV(w)
}

// CleanReport accounts for every input row of a cleaning pass
type CleanReport struct {
	InputRows      int `json:"input_rows"`
	DroppedMissing int `json:"dropped_missing"`
	DroppedRange   int `json:"dropped_range"`
	KeptRows       int `json:"kept_rows"`
}
