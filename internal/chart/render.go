package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

const noRows = "No rows left to plot after dropping missing values."

// Render checks req against ds and builds the figure. Validation and
// data-shape failures come back as a warning result; ds is never modified.
func Render(ds *dataset.Dataset, req Request) Result {
	if ds == nil {
		return warn("No dataset loaded.")
	}
	if err := Validate(ds, req); err != nil {
		return warn("%v", err)
	}
	if need := specs[req.Type].minNumeric; need > 0 {
		if got := len(ds.Classify().Numeric); got < need {
			return warn("%s requires at least %d numeric columns.", req.Type.Label(), need)
		}
	}
	col := func(name string) *dataset.Column {
		c, _ := ds.Column(name)
		return c
	}
	switch req.Type {
	case Scatter:
		var color *dataset.Column
		if req.Color != "" {
			color = col(req.Color)
		}
		return scatter(col(req.X), col(req.Y), color)
	case Line:
		return pairs(Line, "%[2]s over %[1]s", col(req.X), col(req.Y))
	case Area:
		return pairs(Area, "Area Chart of %[2]s over %[1]s", col(req.X), col(req.Y))
	case Bar:
		return bar(col(req.X), col(req.Y))
	case Histogram:
		return hist(col(req.X), req.Bins)
	case Box:
		var group *dataset.Column
		if req.X != "" {
			group = col(req.X)
		}
		return box(group, col(req.Y))
	case Pie:
		return pie(col(req.X))
	case Heatmap:
		return heatmap(ds)
	case Pair:
		return pair(ds)
	case Violin:
		return violin(col(req.X), col(req.Y))
	case Strip:
		return strip(col(req.X), col(req.Y))
	}
	return warn("%s is not supported.", req.Type.Label())
}

// encoded positions a column on an axis: numeric columns by value,
// categorical columns by first-seen category index. Missing cells are NaN.
type encoded struct {
	pos  []float64
	axis Axis
}

func encode(c *dataset.Column) encoded {
	if c.IsNumeric() {
		return encoded{pos: c.Values, axis: Axis{Label: c.Name}}
	}
	levels := c.Levels()
	if levels == nil {
		levels = []string{}
	}
	idx := make(map[string]float64, len(levels))
	for i, l := range levels {
		idx[l] = float64(i)
	}
	pos := make([]float64, c.Len())
	for i, v := range c.Cells {
		if c.Missing[i] {
			pos[i] = math.NaN()
			continue
		}
		pos[i] = idx[v]
	}
	return encoded{pos: pos, axis: Axis{Label: c.Name, Categories: levels}}
}

// groupKeys labels each row by its cell text for grouping; numeric cells are
// formatted so 1 and 1.0 share a group. Missing rows get ok=false.
func groupKeys(c *dataset.Column) (keys []string, ok []bool) {
	keys = make([]string, c.Len())
	ok = make([]bool, c.Len())
	for i := range keys {
		if c.Missing[i] {
			continue
		}
		ok[i] = true
		if c.IsNumeric() {
			keys[i] = strconv.FormatFloat(c.Values[i], 'g', -1, 64)
		} else {
			keys[i] = c.Cells[i]
		}
	}
	return keys, ok
}

type grouped struct {
	labels []string
	rows   map[string][]int
}

// groupRows collects row indices per key in first-seen key order, keeping
// only rows for which keep returns true.
func groupRows(c *dataset.Column, keep func(i int) bool) grouped {
	keys, ok := groupKeys(c)
	g := grouped{rows: map[string][]int{}}
	for i, k := range keys {
		if !ok[i] || !keep(i) {
			continue
		}
		if _, seen := g.rows[k]; !seen {
			g.labels = append(g.labels, k)
		}
		g.rows[k] = append(g.rows[k], i)
	}
	return g
}

// present reports whether every value is plottable: neither missing nor ±Inf.
func present(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func scatter(xc, yc, color *dataset.Column) Result {
	x, y := encode(xc), encode(yc)
	fig := &Figure{Type: Scatter, Title: xc.Name + " vs. " + yc.Name, X: x.axis, Y: y.axis}
	switch {
	case color == nil:
		s := Series{Name: yc.Name}
		for i := range x.pos {
			if present(x.pos[i], y.pos[i]) {
				s.Points = append(s.Points, Point{X: x.pos[i], Y: y.pos[i]})
			}
		}
		fig.Series = []Series{s}
	case color.IsNumeric():
		fig.ColorLabel = color.Name
		s := Series{Name: color.Name, Colored: true}
		for i := range x.pos {
			if present(x.pos[i], y.pos[i], color.Values[i]) {
				s.Points = append(s.Points, Point{X: x.pos[i], Y: y.pos[i], C: color.Values[i]})
			}
		}
		fig.Series = []Series{s}
	default:
		fig.ColorLabel = color.Name
		g := groupRows(color, func(i int) bool { return present(x.pos[i], y.pos[i]) })
		for _, l := range g.labels {
			s := Series{Name: l}
			for _, i := range g.rows[l] {
				s.Points = append(s.Points, Point{X: x.pos[i], Y: y.pos[i]})
			}
			fig.Series = append(fig.Series, s)
		}
	}
	if countPoints(fig.Series) == 0 {
		return warn(noRows)
	}
	return Result{Figure: fig}
}

func countPoints(ss []Series) int {
	n := 0
	for _, s := range ss {
		n += len(s.Points)
	}
	return n
}

// pairs builds a single x/y series in table order.
func pairs(t Type, title string, xc, yc *dataset.Column) Result {
	x, y := encode(xc), encode(yc)
	s := Series{Name: yc.Name}
	for i := range x.pos {
		if present(x.pos[i], y.pos[i]) {
			s.Points = append(s.Points, Point{X: x.pos[i], Y: y.pos[i]})
		}
	}
	if len(s.Points) == 0 {
		return warn(noRows)
	}
	return Result{Figure: &Figure{
		Type:   t,
		Title:  fmt.Sprintf(title, xc.Name, yc.Name),
		X:      x.axis,
		Y:      y.axis,
		Series: []Series{s},
	}}
}

func bar(xc, yc *dataset.Column) Result {
	fig := &Figure{Type: Bar, Title: "Average " + yc.Name + " by " + xc.Name, X: Axis{Label: xc.Name}, Y: Axis{Label: yc.Name}}
	if xc.IsNumeric() {
		s := Series{Name: yc.Name}
		for i := range xc.Values {
			if present(xc.Values[i], yc.Values[i]) {
				s.Points = append(s.Points, Point{X: xc.Values[i], Y: yc.Values[i]})
			}
		}
		if len(s.Points) == 0 {
			return warn(noRows)
		}
		fig.Series = []Series{s}
		return Result{Figure: fig}
	}
	g := groupRows(xc, func(i int) bool { return present(yc.Values[i]) })
	if len(g.labels) == 0 {
		return warn(noRows)
	}
	fig.X.Categories = g.labels
	for _, l := range g.labels {
		rows := g.rows[l]
		var sum float64
		for _, i := range rows {
			sum += yc.Values[i]
		}
		fig.Bars = append(fig.Bars, BarValue{Label: l, Value: sum / float64(len(rows)), Count: len(rows)})
	}
	return Result{Figure: fig}
}

func hist(xc *dataset.Column, bins int) Result {
	vals := xc.Finite()
	if len(vals) == 0 {
		return warn(noRows)
	}
	return Result{Figure: &Figure{
		Type:  Histogram,
		Title: "Distribution of " + xc.Name,
		X:     Axis{Label: xc.Name},
		Y:     Axis{Label: "count"},
		Bins:  histogram(vals, bins),
	}}
}

func box(group, yc *dataset.Column) Result {
	fig := &Figure{Type: Box, Title: "Box Plot of " + yc.Name, Y: Axis{Label: yc.Name}}
	if group == nil {
		vals := yc.Finite()
		if len(vals) == 0 {
			return warn(noRows)
		}
		fig.Boxes = []BoxStats{boxSummary(yc.Name, vals)}
		fig.X = Axis{Categories: []string{yc.Name}}
		return Result{Figure: fig}
	}
	g := groupRows(group, func(i int) bool { return present(yc.Values[i]) })
	if len(g.labels) == 0 {
		return warn(noRows)
	}
	fig.X = Axis{Label: group.Name, Categories: g.labels}
	for _, l := range g.labels {
		vals := make([]float64, 0, len(g.rows[l]))
		for _, i := range g.rows[l] {
			vals = append(vals, yc.Values[i])
		}
		fig.Boxes = append(fig.Boxes, boxSummary(l, vals))
	}
	return Result{Figure: fig}
}

// pie counts each distinct value; slices are ordered by descending count,
// ties keeping first-seen order.
func pie(xc *dataset.Column) Result {
	g := groupRows(xc, func(int) bool { return true })
	if len(g.labels) == 0 {
		return warn(noRows)
	}
	slices := make([]Slice, len(g.labels))
	for i, l := range g.labels {
		slices[i] = Slice{Label: l, Count: len(g.rows[l])}
	}
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].Count > slices[j].Count })
	return Result{Figure: &Figure{
		Type:   Pie,
		Title:  "Distribution of " + xc.Name,
		X:      Axis{Label: xc.Name},
		Slices: slices,
	}}
}

func heatmap(ds *dataset.Dataset) Result {
	m := ds.Correlation()
	return Result{Figure: &Figure{
		Type:   Heatmap,
		Title:  "Correlation Heatmap",
		X:      Axis{Categories: m.Columns},
		Y:      Axis{Categories: m.Columns},
		Matrix: &Matrix{Labels: m.Columns, Values: m.Values},
	}}
}

func pair(ds *dataset.Dataset) Result {
	grid := &PairGrid{}
	for _, c := range ds.Columns {
		if !c.IsNumeric() {
			continue
		}
		grid.Columns = append(grid.Columns, c.Name)
		vals := make([]float64, len(c.Values))
		for i, v := range c.Values {
			if !present(v) {
				v = math.NaN()
			}
			vals[i] = v
		}
		grid.Values = append(grid.Values, vals)
		grid.Diagonal = append(grid.Diagonal, histogram(c.Finite(), DefaultBins))
	}
	return Result{Figure: &Figure{Type: Pair, Title: "Pair Plot", Pair: grid}}
}

// groupedValues positions y per row and groups rows by x's value.
func groupedValues(xc, yc *dataset.Column) (encoded, grouped) {
	y := encode(yc)
	return y, groupRows(xc, func(i int) bool { return present(y.pos[i]) })
}

func violin(xc, yc *dataset.Column) Result {
	y, g := groupedValues(xc, yc)
	if len(g.labels) == 0 {
		return warn(noRows)
	}
	fig := &Figure{
		Type:  Violin,
		Title: "Violin Plot of " + yc.Name + " by " + xc.Name,
		X:     Axis{Label: xc.Name, Categories: g.labels},
		Y:     y.axis,
	}
	for _, l := range g.labels {
		vals := make([]float64, 0, len(g.rows[l]))
		for _, i := range g.rows[l] {
			vals = append(vals, y.pos[i])
		}
		fig.Violins = append(fig.Violins, ViolinStats{Label: l, Box: boxSummary(l, vals), Density: kde(vals)})
	}
	return Result{Figure: fig}
}

func strip(xc, yc *dataset.Column) Result {
	y, g := groupedValues(xc, yc)
	if len(g.labels) == 0 {
		return warn(noRows)
	}
	s := Series{Name: yc.Name}
	for gi, l := range g.labels {
		for _, i := range g.rows[l] {
			s.Points = append(s.Points, Point{X: float64(gi), Y: y.pos[i]})
		}
	}
	return Result{Figure: &Figure{
		Type:   Strip,
		Title:  "Strip Plot of " + yc.Name + " by " + xc.Name,
		X:      Axis{Label: xc.Name, Categories: g.labels},
		Y:      y.axis,
		Series: []Series{s},
	}}
}
