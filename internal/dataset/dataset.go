package dataset

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the storage kind a column was inferred as at load time.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column is one named column of a Dataset. Cells keep the raw text as read;
// Values is only populated for numeric columns and holds NaN where missing.
type Column struct {
	Name    string
	Kind    Kind
	Cells   []string
	Missing []bool
	Values  []float64
}

// IsNumeric reports whether the column was inferred as numeric.
func (c *Column) IsNumeric() bool { return c.Kind == KindNumeric }

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Cells) }

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Levels returns the distinct non-missing cell values in first-seen order.
func (c *Column) Levels() []string {
	seen := make(map[string]struct{})
	var out []string
	for i, v := range c.Cells {
		if c.Missing[i] {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NonMissing returns the numeric values with missing entries dropped.
func (c *Column) NonMissing() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Finite returns the numeric values that can be placed on an axis: missing
// entries and ±Inf are dropped.
func (c *Column) Finite() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an immutable in-memory table loaded from one uploaded file.
type Dataset struct {
	Name    string
	Columns []*Column
	Rows    int

	index map[string]int
}

// Classification partitions a dataset's column names by storage kind.
type Classification struct {
	Numeric     []string
	Categorical []string
	All         []string
}

// New assembles a Dataset from a header and row-major cells. Rows shorter
// than the header are padded with missing cells.
func New(name string, header []string, rows [][]string, opt Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}
	names := normalizeHeader(header)
	for i, rec := range rows {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d", ErrRaggedRow, i+1, len(rec), len(names))
		}
	}
	ds := &Dataset{Name: name, Rows: len(rows), index: make(map[string]int, len(names))}
	for j, n := range names {
		col := &Column{Name: n, Cells: make([]string, len(rows)), Missing: make([]bool, len(rows))}
		for i, rec := range rows {
			if j < len(rec) {
				col.Cells[i] = rec[j]
			}
			col.Missing[i] = isMissing(col.Cells[i])
		}
		inferKind(col, opt)
		ds.Columns = append(ds.Columns, col)
		ds.index[n] = j
	}
	return ds, nil
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// Names returns the column names in table order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Classify partitions the columns into numeric and categorical groups.
// It is recomputed on every call.
func (d *Dataset) Classify() Classification {
	cl := Classification{All: d.Names()}
	for _, c := range d.Columns {
		if c.IsNumeric() {
			cl.Numeric = append(cl.Numeric, c.Name)
		} else {
			cl.Categorical = append(cl.Categorical, c.Name)
		}
	}
	return cl
}

// Row returns the raw cells of row i; missing cells come back empty.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Columns))
	for j, c := range d.Columns {
		if !c.Missing[i] {
			out[j] = c.Cells[i]
		}
	}
	return out
}

// Head returns up to n leading rows.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Rows {
		n = d.Rows
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// Shape returns rows and columns.
func (d *Dataset) Shape() (int, int) { return d.Rows, len(d.Columns) }

func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		n := strings.TrimSpace(h)
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := used[n]; dup {
			base := n
			k := used[base]
			for {
				k++
				cand := fmt.Sprintf("%s.%d", base, k)
				if _, taken := used[cand]; !taken {
					n = cand
					break
				}
			}
			used[base] = k
		}
		used[n] = 0
		names[i] = n
	}
	return names
}
