package render

import (
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/insightigraph/internal/chart"
)

// piePNG draws pie slices with go-chart; gonum/plot has no pie plotter.
func piePNG(w io.Writer, fig *chart.Figure, opt Options) error {
	if len(fig.Slices) == 0 {
		return ErrNoFigure
	}
	total := 0
	for _, s := range fig.Slices {
		total += s.Count
	}
	values := make([]gochart.Value, 0, len(fig.Slices))
	for _, s := range fig.Slices {
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, 100*float64(s.Count)/float64(total)),
			Value: float64(s.Count),
		})
	}
	pc := gochart.PieChart{
		Title:  fig.Title,
		Width:  opt.Width,
		Height: opt.Height,
		Values: values,
	}
	if err := pc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	return nil
}
