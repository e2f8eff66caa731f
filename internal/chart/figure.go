package chart

import (
	"encoding/json"
	"fmt"
	"math"
)

// Axis describes one figure axis. Categorical axes list their categories;
// points on them are positioned at the category index.
type Axis struct {
	Label      string   `json:"label"`
	Categories []string `json:"categories,omitempty"`
}

// Categorical reports whether the axis is positional over Categories.
func (a Axis) Categorical() bool { return a.Categories != nil }

// Point is one plotted observation. C carries the color value for series
// colored by a numeric column.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	C float64 `json:"c,omitempty"`
}

// Series is a named run of points.
type Series struct {
	Name    string  `json:"name"`
	Points  []Point `json:"points"`
	Colored bool    `json:"colored,omitempty"`
}

// BarValue is one aggregated bar: the mean of y over Count rows.
type BarValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// BoxStats is a five-number summary with Tukey whiskers.
type BoxStats struct {
	Label        string    `json:"label"`
	N            int       `json:"n"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty"`
	Values       []float64 `json:"-"`
}

// Slice is one pie slice.
type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Matrix is a square matrix labelled by the same names on both axes.
type Matrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"-"`
}

// MarshalJSON writes NaN cells as null.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Labels []string     `json:"labels"`
		Values [][]*float64 `json:"values"`
	}{m.Labels, nullable(m.Values)})
}

// PairGrid holds the columns of a pair plot; off-diagonal cells are scatter
// plots of Values, diagonal cells are histograms.
type PairGrid struct {
	Columns  []string    `json:"columns"`
	Values   [][]float64 `json:"-"`
	Diagonal [][]Bin     `json:"diagonal"`
}

// MarshalJSON writes missing values as null.
func (g PairGrid) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns  []string     `json:"columns"`
		Values   [][]*float64 `json:"values"`
		Diagonal [][]Bin      `json:"diagonal"`
	}{g.Columns, nullable(g.Values), g.Diagonal})
}

// DensityPoint is one sample of a kernel density estimate.
type DensityPoint struct {
	Y       float64 `json:"y"`
	Density float64 `json:"density"`
}

// ViolinStats is one violin: a KDE over the group's values plus its box.
type ViolinStats struct {
	Label   string         `json:"label"`
	Box     BoxStats       `json:"box"`
	Density []DensityPoint `json:"density"`
}

// Figure is the renderer-neutral description of one chart. Exactly the
// payload fields for Type are set.
type Figure struct {
	Type       Type          `json:"type"`
	Title      string        `json:"title"`
	X          Axis          `json:"x"`
	Y          Axis          `json:"y"`
	ColorLabel string        `json:"color_label,omitempty"`
	Series     []Series      `json:"series,omitempty"`
	Bars       []BarValue    `json:"bars,omitempty"`
	Bins       []Bin         `json:"bins,omitempty"`
	Boxes      []BoxStats    `json:"boxes,omitempty"`
	Slices     []Slice       `json:"slices,omitempty"`
	Matrix     *Matrix       `json:"matrix,omitempty"`
	Pair       *PairGrid     `json:"pair,omitempty"`
	Violins    []ViolinStats `json:"violins,omitempty"`
}

// Result is either a figure or a warning, never both.
type Result struct {
	Figure  *Figure
	Warning string
}

// OK reports whether the result carries a figure.
func (r Result) OK() bool { return r.Figure != nil }

func warn(format string, args ...any) Result {
	return Result{Warning: fmt.Sprintf(format, args...)}
}

func nullable(rows [][]float64) [][]*float64 {
	out := make([][]*float64, len(rows))
	for i, row := range rows {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				v := row[j]
				out[i][j] = &v
			}
		}
	}
	return out
}
