package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/insightigraph/internal/chart"
)

var (
	fillColor = color.RGBA{R: 99, G: 110, B: 250, A: 255}
	areaColor = color.RGBA{R: 99, G: 110, B: 250, A: 90}
	nanColor  = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// pixels converts a pixel count to a vg length at the default 96 DPI.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / vgimg.DefaultDPI
}

// PNG writes fig as a PNG image. Pie charts are drawn with go-chart, every
// other type with gonum/plot.
func PNG(w io.Writer, fig *chart.Figure, opt Options) error {
	if fig == nil {
		return ErrNoFigure
	}
	opt = opt.withDefaults()
	switch fig.Type {
	case chart.Pie:
		return piePNG(w, fig, opt)
	case chart.Pair:
		return pairPNG(w, fig, opt)
	}
	p, err := newPlot(fig)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(pixels(opt.Width), pixels(opt.Height), "png")
	if err != nil {
		return fmt.Errorf("create plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func newPlot(fig *chart.Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.X.Label
	p.Y.Label.Text = fig.Y.Label
	var err error
	switch fig.Type {
	case chart.Scatter:
		err = addScatter(p, fig)
	case chart.Line, chart.Area:
		err = addLine(p, fig)
	case chart.Bar:
		err = addBar(p, fig)
	case chart.Histogram:
		addBins(p, fig.Bins)
	case chart.Box:
		err = addBoxes(p, fig)
	case chart.Heatmap:
		addHeatmap(p, fig)
	case chart.Violin:
		err = addViolins(p, fig)
	case chart.Strip:
		err = addStrip(p, fig)
	default:
		return nil, fmt.Errorf("png: unsupported chart type %q", fig.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", fig.Type.Label(), err)
	}
	nominal(p, fig)
	return p, nil
}

// nominal labels categorical axes with their category names.
func nominal(p *plot.Plot, fig *chart.Figure) {
	if len(fig.X.Categories) > 0 {
		p.NominalX(fig.X.Categories...)
	}
	if len(fig.Y.Categories) > 0 {
		p.NominalY(fig.Y.Categories...)
	}
}

func xys(pts []chart.Point) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		out[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return out
}

func addScatter(p *plot.Plot, fig *chart.Figure) error {
	for i, s := range fig.Series {
		sc, err := plotter.NewScatter(xys(s.Points))
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		switch {
		case s.Colored:
			colorBy(sc, s.Points)
		case len(fig.Series) > 1:
			sc.GlyphStyle.Color = plotutil.Color(i)
			p.Legend.Add(s.Name, sc)
		default:
			sc.GlyphStyle.Color = fillColor
		}
		p.Add(sc)
	}
	if fig.ColorLabel != "" {
		p.Legend.Top = true
	}
	return nil
}

// colorBy maps each point's C value onto a diverging color map.
func colorBy(sc *plotter.Scatter, pts []chart.Point) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range pts {
		lo = math.Min(lo, pt.C)
		hi = math.Max(hi, pt.C)
	}
	if !(hi > lo) {
		sc.GlyphStyle.Color = fillColor
		return
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	base := sc.GlyphStyle
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		g := base
		if c, err := cm.At(pts[i].C); err == nil {
			g.Color = c
		}
		return g
	}
}

func addLine(p *plot.Plot, fig *chart.Figure) error {
	for _, s := range fig.Series {
		l, err := plotter.NewLine(xys(s.Points))
		if err != nil {
			return err
		}
		l.LineStyle.Color = fillColor
		l.LineStyle.Width = vg.Points(1.5)
		if fig.Type == chart.Area {
			l.FillColor = areaColor
		}
		p.Add(l)
	}
	return nil
}

func addBar(p *plot.Plot, fig *chart.Figure) error {
	if len(fig.Bars) == 0 {
		// Numeric x: one bar per raw pair, as wide as the tightest gap allows.
		for _, s := range fig.Series {
			p.Add(stems(s.Points))
		}
		return nil
	}
	vals := make(plotter.Values, len(fig.Bars))
	for i, b := range fig.Bars {
		vals[i] = b.Value
	}
	bc, err := plotter.NewBarChart(vals, vg.Points(math.Max(4, 360/float64(len(vals)))))
	if err != nil {
		return err
	}
	bc.Color = fillColor
	bc.LineStyle.Width = 0
	p.Add(bc)
	return nil
}

func stems(pts []chart.Point) *plotter.Histogram {
	width := math.Inf(1)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := math.Abs(pts[i].X - pts[j].X); d > 0 && d < width {
				width = d
			}
		}
	}
	if math.IsInf(width, 1) {
		width = 1
	}
	width *= 0.8
	h := &plotter.Histogram{Width: width, FillColor: fillColor, LineStyle: plotter.DefaultLineStyle}
	h.LineStyle.Width = 0
	for _, pt := range pts {
		h.Bins = append(h.Bins, plotter.HistogramBin{Min: pt.X - width/2, Max: pt.X + width/2, Weight: pt.Y})
	}
	return h
}

func histogramPlotter(bins []chart.Bin) *plotter.Histogram {
	h := &plotter.Histogram{FillColor: fillColor, LineStyle: plotter.DefaultLineStyle}
	h.LineStyle.Color = color.White
	for _, b := range bins {
		h.Bins = append(h.Bins, plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)})
	}
	if len(bins) > 0 {
		h.Width = bins[0].Hi - bins[0].Lo
	}
	return h
}

func addBins(p *plot.Plot, bins []chart.Bin) {
	p.Add(histogramPlotter(bins))
}

func addBoxes(p *plot.Plot, fig *chart.Figure) error {
	w := vg.Points(math.Max(10, 200/float64(len(fig.Boxes))))
	for i, b := range fig.Boxes {
		bp, err := plotter.NewBoxPlot(w, float64(i), plotter.Values(b.Values))
		if err != nil {
			return err
		}
		bp.FillColor = areaColor
		p.Add(bp)
	}
	return nil
}

// grid adapts a correlation matrix to plotter.GridXYZ. Row 0 is drawn at
// the bottom, matching the nominal Y ticks.
type grid struct{ m *chart.Matrix }

func (g grid) Dims() (c, r int)   { return len(g.m.Labels), len(g.m.Labels) }
func (g grid) Z(c, r int) float64 { return g.m.Values[r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

func addHeatmap(p *plot.Plot, fig *chart.Figure) {
	if fig.Matrix == nil || len(fig.Matrix.Labels) == 0 {
		return
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(grid{fig.Matrix}, cm.Palette(21))
	hm.Min, hm.Max = -1, 1
	hm.NaN = nanColor
	p.Add(hm)
	for r, row := range fig.Matrix.Values {
		for c, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lbl, err := plotter.NewLabels(plotter.XYLabels{
				XYs:    []plotter.XY{{X: float64(c), Y: float64(r)}},
				Labels: []string{fmt.Sprintf("%.2f", v)},
			})
			if err != nil {
				continue
			}
			for i := range lbl.TextStyle {
				lbl.TextStyle[i].XAlign = draw.XCenter
				lbl.TextStyle[i].YAlign = draw.YCenter
			}
			p.Add(lbl)
		}
	}
}

// violinScale is the half width of the widest violin in category units.
const violinScale = 0.4

func addViolins(p *plot.Plot, fig *chart.Figure) error {
	peak := 0.0
	for _, v := range fig.Violins {
		for _, d := range v.Density {
			peak = math.Max(peak, d.Density)
		}
	}
	if peak == 0 {
		peak = 1
	}
	for i, v := range fig.Violins {
		if len(v.Density) == 0 {
			continue
		}
		ring := make(plotter.XYs, 0, 2*len(v.Density))
		for _, d := range v.Density {
			ring = append(ring, plotter.XY{X: float64(i) - d.Density/peak*violinScale, Y: d.Y})
		}
		for k := len(v.Density) - 1; k >= 0; k-- {
			d := v.Density[k]
			ring = append(ring, plotter.XY{X: float64(i) + d.Density/peak*violinScale, Y: d.Y})
		}
		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return err
		}
		poly.Color = plotutil.Color(i)
		p.Add(poly)
		med, err := plotter.NewLine(plotter.XYs{
			{X: float64(i) - violinScale/3, Y: v.Box.Median},
			{X: float64(i) + violinScale/3, Y: v.Box.Median},
		})
		if err != nil {
			return err
		}
		med.LineStyle.Width = vg.Points(2)
		p.Add(med)
	}
	return nil
}

// jitter spreads points horizontally within a category using a fixed
// low-discrepancy sequence, so the same data always draws the same image.
func jitter(k int) float64 {
	const phi = 0.6180339887498949
	f := float64(k+1) * phi
	return (f-math.Floor(f)-0.5) * 0.3
}

func addStrip(p *plot.Plot, fig *chart.Figure) error {
	for _, s := range fig.Series {
		pts := make(plotter.XYs, len(s.Points))
		for k, pt := range s.Points {
			pts[k] = plotter.XY{X: pt.X + jitter(k), Y: pt.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Color = fillColor
		p.Add(sc)
	}
	return nil
}

// pairPNG tiles one small plot per column pair onto a single canvas.
func pairPNG(w io.Writer, fig *chart.Figure, opt Options) error {
	g := fig.Pair
	if g == nil || len(g.Columns) == 0 {
		return ErrNoFigure
	}
	n := len(g.Columns)
	plots := make([][]*plot.Plot, n)
	for r := range plots {
		plots[r] = make([]*plot.Plot, n)
		for c := range plots[r] {
			p := plot.New()
			if r == n-1 {
				p.X.Label.Text = g.Columns[c]
			}
			if c == 0 {
				p.Y.Label.Text = g.Columns[r]
			}
			if r == c {
				addBins(p, g.Diagonal[c])
			} else if err := addPairScatter(p, g.Values[c], g.Values[r]); err != nil {
				return fmt.Errorf("build pair cell %s/%s: %w", g.Columns[c], g.Columns[r], err)
			}
			plots[r][c] = p
		}
	}
	img := vgimg.New(pixels(opt.Width), pixels(opt.Height))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: n, Cols: n,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func addPairScatter(p *plot.Plot, x, y []float64) error {
	var pts plotter.XYs
	for i := range x {
		if !math.IsNaN(x[i]) && !math.IsNaN(y[i]) {
			pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Color = fillColor
	p.Add(sc)
	return nil
}
