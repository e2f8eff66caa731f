package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/insightigraph/internal/chart"
)

// EChartsOption builds the ECharts option object for fig. Missing values
// never reach the option: NaN cells are skipped.
func EChartsOption(fig *chart.Figure) (map[string]any, error) {
	if fig == nil {
		return nil, ErrNoFigure
	}
	opt := map[string]any{
		"title":   map[string]any{"text": fig.Title, "left": "center"},
		"tooltip": map[string]any{"trigger": "item"},
	}
	switch fig.Type {
	case chart.Scatter:
		scatterOption(opt, fig)
	case chart.Line, chart.Area:
		lineOption(opt, fig)
	case chart.Bar:
		barOption(opt, fig)
	case chart.Histogram:
		histogramOption(opt, fig)
	case chart.Box:
		boxOption(opt, fig)
	case chart.Pie:
		pieOption(opt, fig)
	case chart.Heatmap:
		heatmapOption(opt, fig)
	case chart.Pair:
		pairOption(opt, fig)
	case chart.Violin:
		violinOption(opt, fig)
	case chart.Strip:
		stripOption(opt, fig)
	default:
		return nil, fmt.Errorf("echarts: unsupported chart type %q", fig.Type)
	}
	return opt, nil
}

// OptionJSON is EChartsOption marshalled for embedding in a page.
func OptionJSON(fig *chart.Figure) (string, error) {
	opt, err := EChartsOption(fig)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(opt)
	if err != nil {
		return "", fmt.Errorf("marshal echarts option: %w", err)
	}
	return string(b), nil
}

func axisOption(a chart.Axis) map[string]any {
	if a.Categorical() {
		return map[string]any{"type": "category", "name": a.Label, "data": a.Categories}
	}
	return map[string]any{"type": "value", "name": a.Label, "scale": true}
}

func pointData(pts []chart.Point, withC bool) [][]float64 {
	out := make([][]float64, 0, len(pts))
	for _, p := range pts {
		if withC {
			out = append(out, []float64{p.X, p.Y, p.C})
			continue
		}
		out = append(out, []float64{p.X, p.Y})
	}
	return out
}

func seriesNames(ss []map[string]any) []string {
	names := make([]string, 0, len(ss))
	for _, s := range ss {
		names = append(names, s["name"].(string))
	}
	return names
}

func scatterOption(opt map[string]any, fig *chart.Figure) {
	opt["xAxis"] = axisOption(fig.X)
	opt["yAxis"] = axisOption(fig.Y)
	var series []map[string]any
	for _, s := range fig.Series {
		series = append(series, map[string]any{
			"type":       "scatter",
			"name":       s.Name,
			"data":       pointData(s.Points, s.Colored),
			"symbolSize": 7,
		})
		if s.Colored {
			lo, hi := cRange(s.Points)
			opt["visualMap"] = map[string]any{
				"type":       "continuous",
				"dimension":  2,
				"min":        lo,
				"max":        hi,
				"text":       []string{fig.ColorLabel, ""},
				"calculable": true,
				"right":      0,
				"top":        "middle",
			}
		}
	}
	if len(series) > 1 {
		opt["legend"] = map[string]any{"top": 30, "data": seriesNames(series)}
	}
	opt["series"] = series
}

func cRange(pts []chart.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p.C)
		hi = math.Max(hi, p.C)
	}
	if len(pts) == 0 {
		return 0, 0
	}
	return lo, hi
}

func lineOption(opt map[string]any, fig *chart.Figure) {
	opt["tooltip"] = map[string]any{"trigger": "axis"}
	opt["xAxis"] = axisOption(fig.X)
	opt["yAxis"] = axisOption(fig.Y)
	var series []map[string]any
	for _, s := range fig.Series {
		line := map[string]any{
			"type":       "line",
			"name":       s.Name,
			"data":       pointData(s.Points, false),
			"showSymbol": len(s.Points) <= 200,
		}
		if fig.Type == chart.Area {
			line["areaStyle"] = map[string]any{"opacity": 0.35}
		}
		series = append(series, line)
	}
	opt["series"] = series
}

func barOption(opt map[string]any, fig *chart.Figure) {
	opt["yAxis"] = axisOption(fig.Y)
	if len(fig.Bars) == 0 {
		opt["xAxis"] = axisOption(fig.X)
		var series []map[string]any
		for _, s := range fig.Series {
			series = append(series, map[string]any{"type": "bar", "name": s.Name, "data": pointData(s.Points, false)})
		}
		opt["series"] = series
		return
	}
	labels := make([]string, len(fig.Bars))
	data := make([]map[string]any, len(fig.Bars))
	for i, b := range fig.Bars {
		labels[i] = b.Label
		data[i] = map[string]any{"value": b.Value, "count": b.Count}
	}
	opt["xAxis"] = map[string]any{"type": "category", "name": fig.X.Label, "data": labels}
	opt["series"] = []map[string]any{{"type": "bar", "name": fig.Y.Label, "data": data}}
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func histogramOption(opt map[string]any, fig *chart.Figure) {
	labels := make([]string, len(fig.Bins))
	counts := make([]int, len(fig.Bins))
	for i, b := range fig.Bins {
		labels[i] = formatEdge(b.Lo) + " – " + formatEdge(b.Hi)
		counts[i] = b.Count
	}
	opt["xAxis"] = map[string]any{"type": "category", "name": fig.X.Label, "data": labels}
	opt["yAxis"] = map[string]any{"type": "value", "name": fig.Y.Label}
	opt["series"] = []map[string]any{{
		"type":           "bar",
		"name":           "count",
		"data":           counts,
		"barCategoryGap": "0%",
	}}
}

func boxOption(opt map[string]any, fig *chart.Figure) {
	labels := make([]string, len(fig.Boxes))
	data := make([][]float64, len(fig.Boxes))
	var outliers [][]float64
	for i, b := range fig.Boxes {
		labels[i] = b.Label
		data[i] = []float64{b.LowerWhisker, b.Q1, b.Median, b.Q3, b.UpperWhisker}
		for _, o := range b.Outliers {
			outliers = append(outliers, []float64{float64(i), o})
		}
	}
	opt["xAxis"] = map[string]any{"type": "category", "name": fig.X.Label, "data": labels}
	opt["yAxis"] = map[string]any{"type": "value", "name": fig.Y.Label, "scale": true}
	series := []map[string]any{{"type": "boxplot", "name": fig.Y.Label, "data": data}}
	if len(outliers) > 0 {
		series = append(series, map[string]any{"type": "scatter", "name": "outliers", "data": outliers})
	}
	opt["series"] = series
}

func pieOption(opt map[string]any, fig *chart.Figure) {
	data := make([]map[string]any, len(fig.Slices))
	for i, s := range fig.Slices {
		data[i] = map[string]any{"name": s.Label, "value": s.Count}
	}
	opt["legend"] = map[string]any{"type": "scroll", "orient": "vertical", "left": "left", "top": 40}
	opt["series"] = []map[string]any{{
		"type":   "pie",
		"name":   fig.X.Label,
		"radius": "60%",
		"data":   data,
		"label":  map[string]any{"formatter": "{b}: {d}%"},
	}}
}

func heatmapOption(opt map[string]any, fig *chart.Figure) {
	m := fig.Matrix
	if m == nil {
		return
	}
	var data [][]any
	for r, row := range m.Values {
		for c, v := range row {
			if math.IsNaN(v) {
				continue
			}
			data = append(data, []any{c, r, math.Round(v*100) / 100})
		}
	}
	opt["tooltip"] = map[string]any{"position": "top"}
	opt["xAxis"] = map[string]any{"type": "category", "data": m.Labels, "splitArea": map[string]any{"show": true}}
	opt["yAxis"] = map[string]any{"type": "category", "data": m.Labels, "splitArea": map[string]any{"show": true}}
	opt["visualMap"] = map[string]any{
		"min":        -1,
		"max":        1,
		"calculable": true,
		"orient":     "horizontal",
		"left":       "center",
		"bottom":     0,
		"inRange":    map[string]any{"color": []string{"#3b4cc0", "#f7f7f7", "#b40426"}},
	}
	opt["grid"] = map[string]any{"bottom": 80, "containLabel": true}
	opt["series"] = []map[string]any{{
		"type":  "heatmap",
		"name":  "correlation",
		"data":  data,
		"label": map[string]any{"show": true},
	}}
}

// pairOption lays out one ECharts grid per cell of the pair plot.
func pairOption(opt map[string]any, fig *chart.Figure) {
	g := fig.Pair
	if g == nil {
		return
	}
	n := len(g.Columns)
	const margin = 6.0
	cell := (100 - 2*margin) / float64(n)
	pct := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "%" }
	var grids, xAxes, yAxes, series []map[string]any
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			idx := r*n + c
			grids = append(grids, map[string]any{
				"left":   pct(margin + float64(c)*cell + 1),
				"top":    pct(margin + float64(r)*cell + 1),
				"width":  pct(cell - 2),
				"height": pct(cell - 2),
			})
			xa := map[string]any{"type": "value", "gridIndex": idx, "scale": true, "axisLabel": map[string]any{"show": r == n-1}}
			ya := map[string]any{"type": "value", "gridIndex": idx, "scale": true, "axisLabel": map[string]any{"show": c == 0}}
			if r == n-1 {
				xa["name"] = g.Columns[c]
				xa["nameLocation"] = "middle"
				xa["nameGap"] = 22
			}
			if c == 0 {
				ya["name"] = g.Columns[r]
				ya["nameLocation"] = "middle"
				ya["nameGap"] = 36
			}
			if r == c {
				var data [][]float64
				for _, b := range g.Diagonal[c] {
					data = append(data, []float64{(b.Lo + b.Hi) / 2, float64(b.Count)})
				}
				series = append(series, map[string]any{
					"type": "bar", "xAxisIndex": idx, "yAxisIndex": idx,
					"name": g.Columns[c], "data": data, "barCategoryGap": "0%",
				})
			} else {
				var data [][]float64
				xs, ys := g.Values[c], g.Values[r]
				for i := range xs {
					if !math.IsNaN(xs[i]) && !math.IsNaN(ys[i]) {
						data = append(data, []float64{xs[i], ys[i]})
					}
				}
				series = append(series, map[string]any{
					"type": "scatter", "xAxisIndex": idx, "yAxisIndex": idx,
					"name": g.Columns[c] + " / " + g.Columns[r], "data": data, "symbolSize": 4,
				})
			}
			xAxes = append(xAxes, xa)
			yAxes = append(yAxes, ya)
		}
	}
	opt["grid"] = grids
	opt["xAxis"] = xAxes
	opt["yAxis"] = yAxes
	opt["series"] = series
}

// violinOption draws each group's mirrored density as a closed outline on
// a value axis where group i is centered at x = i.
func violinOption(opt map[string]any, fig *chart.Figure) {
	peak := 0.0
	for _, v := range fig.Violins {
		for _, d := range v.Density {
			peak = math.Max(peak, d.Density)
		}
	}
	if peak == 0 {
		peak = 1
	}
	var series []map[string]any
	for i, v := range fig.Violins {
		var data [][]float64
		for _, d := range v.Density {
			data = append(data, []float64{float64(i) - d.Density/peak*violinScale, d.Y})
		}
		for k := len(v.Density) - 1; k >= 0; k-- {
			d := v.Density[k]
			data = append(data, []float64{float64(i) + d.Density/peak*violinScale, d.Y})
		}
		if len(data) > 0 {
			data = append(data, data[0])
		}
		series = append(series, map[string]any{
			"type":       "line",
			"name":       v.Label,
			"data":       data,
			"showSymbol": false,
			"smooth":     true,
			"areaStyle":  map[string]any{"opacity": 0.3, "origin": "auto"},
		})
	}
	opt["xAxis"] = categoryValueAxis(fig.X)
	opt["yAxis"] = axisOption(fig.Y)
	opt["legend"] = map[string]any{"top": 30, "data": seriesNames(series)}
	opt["series"] = series
}

// categoryValueAxis spans category indexes on a value axis so shapes can be
// drawn between categories.
func categoryValueAxis(a chart.Axis) map[string]any {
	return map[string]any{
		"type":     "value",
		"name":     a.Label,
		"min":      -0.5,
		"max":      float64(len(a.Categories)) - 0.5,
		"interval": 1,
	}
}

func stripOption(opt map[string]any, fig *chart.Figure) {
	groups := make([][][]float64, len(fig.X.Categories))
	for _, s := range fig.Series {
		for k, p := range s.Points {
			gi := int(p.X)
			if gi < 0 || gi >= len(groups) {
				continue
			}
			groups[gi] = append(groups[gi], []float64{p.X + jitter(k), p.Y})
		}
	}
	var series []map[string]any
	for i, label := range fig.X.Categories {
		series = append(series, map[string]any{
			"type":       "scatter",
			"name":       label,
			"data":       groups[i],
			"symbolSize": 6,
		})
	}
	opt["xAxis"] = categoryValueAxis(fig.X)
	opt["yAxis"] = axisOption(fig.Y)
	opt["legend"] = map[string]any{"top": 30, "data": seriesNames(series)}
	opt["series"] = series
}
