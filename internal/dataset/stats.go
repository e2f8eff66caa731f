package dataset

import (
	"math"
	"slices"

	"github.com/go-gota/gota/series"
)

// Summary is one row of the descriptive statistics table.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarizes every numeric column, skipping missing values.
func (d *Dataset) Describe() []Summary {
	var out []Summary
	for _, c := range d.Columns {
		if !c.IsNumeric() {
			continue
		}
		vals := c.NonMissing()
		s := series.Floats(vals)
		sorted := slices.Clone(vals)
		slices.Sort(sorted)
		out = append(out, Summary{
			Column: c.Name,
			Count:  len(vals),
			Mean:   s.Mean(),
			Std:    s.StdDev(),
			Min:    s.Min(),
			Q25:    linearQuantile(sorted, 0.25),
			Median: s.Median(),
			Q75:    linearQuantile(sorted, 0.75),
			Max:    s.Max(),
		})
	}
	return out
}

// linearQuantile interpolates between the two closest ranks of sorted.
func linearQuantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	w := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*w
}

// MissingCount is one row of the missing-value report.
type MissingCount struct {
	Column  string
	Count   int
	Percent float64
}

// MissingValues reports per-column missing counts for every column.
func (d *Dataset) MissingValues() []MissingCount {
	out := make([]MissingCount, 0, len(d.Columns))
	for _, c := range d.Columns {
		m := MissingCount{Column: c.Name, Count: c.MissingCount()}
		if d.Rows > 0 {
			m.Percent = float64(m.Count) * 100 / float64(d.Rows)
		}
		out = append(out, m)
	}
	return out
}

// TotalMissing returns the number of missing cells across the table.
func (d *Dataset) TotalMissing() int {
	n := 0
	for _, c := range d.Columns {
		n += c.MissingCount()
	}
	return n
}

// CorrMatrix is a square Pearson correlation matrix labelled by column name
// on both axes. Undefined entries are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlation computes pairwise-complete Pearson correlations over all
// numeric columns. It returns nil when there are no numeric columns.
func (d *Dataset) Correlation() *CorrMatrix {
	var cols []*Column
	for _, c := range d.Columns {
		if c.IsNumeric() {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i := range cols {
		m.Columns[i] = cols[i].Name
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := Pearson(cols[i].Values, cols[j].Values)
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// Pearson returns the correlation of x and y over the positions where both
// are present. It is NaN with fewer than two pairs or zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var cnt, sx, sy float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		cnt++
		sx += x[i]
		sy += y[i]
	}
	if cnt < 2 {
		return math.NaN()
	}
	mx, my := sx/cnt, sy/cnt
	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx, dy := x[i]-mx, y[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
