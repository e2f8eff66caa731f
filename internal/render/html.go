package render

import (
	"context"
	"io"

	"github.com/KaramelBytes/insightigraph/internal/chart"
	"github.com/KaramelBytes/insightigraph/internal/views"
)

// HTML writes fig as a standalone interactive document.
func HTML(ctx context.Context, w io.Writer, fig *chart.Figure, opt Options) error {
	opt = opt.withDefaults()
	js, err := OptionJSON(fig)
	if err != nil {
		return err
	}
	doc := views.ChartDoc{Title: fig.Title, OptionJSON: js, EChartsURL: opt.EChartsURL}
	return views.ChartDocument(doc).Render(ctx, w)
}
