// Package render turns chart figures into downloadable artifacts: PNG images
// and ECharts-backed interactive HTML documents.
package render

import (
	"errors"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/chart"
)

// DefaultEChartsURL is the script the interactive documents load.
const DefaultEChartsURL = "https://cdn.jsdelivr.net/npm/echarts@5.5.1/dist/echarts.min.js"

// ErrNoFigure is returned when asked to render a nil figure.
var ErrNoFigure = errors.New("no figure to render")

// Options controls output size and the ECharts script location.
type Options struct {
	Width      int // pixels
	Height     int // pixels
	EChartsURL string
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{Width: 900, Height: 600, EChartsURL: DefaultEChartsURL}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if strings.TrimSpace(o.EChartsURL) == "" {
		o.EChartsURL = d.EChartsURL
	}
	return o
}

// ArtifactBase is the download name stem for a figure, e.g. "Scatter_Plot".
func ArtifactBase(t chart.Type) string {
	return strings.ReplaceAll(t.Label(), " ", "_")
}
