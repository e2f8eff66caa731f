package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/insightigraph/internal/chart"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/render"
	"github.com/KaramelBytes/insightigraph/internal/utils"
	"github.com/spf13/cobra"
)

// errNotRendered is returned when the dispatcher answers with a warning.
var errNotRendered = errors.New("chart was not rendered")

var (
	chInput  inputFlags
	chType   string
	chX      string
	chY      string
	chColor  string
	chBins   int
	chFormat string
	chOutput string
	chWidth  int
	chHeight int

	// now stamps default output names; tests pin it.
	now = time.Now
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Render one chart of a dataset to PNG, HTML or ECharts JSON",
	Long: `Render one chart of a dataset. Chart types: scatter, line, bar, histogram,
box, pie, heatmap, pair, area, violin, strip. Unset column roles default to
the first eligible columns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(chFormat))
		switch format {
		case "png", "html", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use png|html|json)", chFormat)
		}
		t, err := chart.ParseType(chType)
		if err != nil {
			return err
		}
		ds, err := chInput.load(args[0])
		if err != nil {
			return err
		}
		c := currentConfig()

		sel := chart.DefaultSelections(t, ds.Classify())
		f := cmd.Flags()
		for flag, v := range map[string]string{"x": chX, "y": chY, "color": chColor} {
			if f.Changed(flag) {
				sel[flag] = v
			}
		}
		if _, ok := sel["bins"]; ok {
			bins := c.DefaultBins
			if f.Changed("bins") || bins <= 0 {
				bins = chBins
			}
			sel["bins"] = strconv.Itoa(bins)
		} else if f.Changed("bins") {
			sel["bins"] = strconv.Itoa(chBins)
		}
		req, err := chart.BuildRequest(string(t), sel)
		if err != nil {
			return err
		}

		res := chart.Render(ds, req)
		if !res.OK() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", res.Warning)
			return errNotRendered
		}

		opt := render.Options{Width: c.ChartWidth, Height: c.ChartHeight, EChartsURL: c.EChartsURL}
		if f.Changed("width") {
			opt.Width = chWidth
		}
		if f.Changed("height") {
			opt.Height = chHeight
		}
		var buf bytes.Buffer
		switch format {
		case "png":
			err = render.PNG(&buf, res.Figure, opt)
		case "html":
			err = render.HTML(cmd.Context(), &buf, res.Figure, opt)
		case "json":
			var option map[string]any
			if option, err = render.EChartsOption(res.Figure); err == nil {
				var b []byte
				if b, err = utils.PrettyJSON(option); err == nil {
					buf.Write(b)
				}
			}
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}

		out := chOutput
		if out == "" {
			out = utils.ArtifactName(render.ArtifactBase(t), format, now())
		}
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return err
		}
		logging.Debug().
			Add(logging.ChartType(string(t))).
			Add(logging.File(out)).
			Msg("chart written")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", t.Label(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chInput.register(chartCmd)
	chartCmd.Flags().StringVarP(&chType, "type", "t", string(chart.Scatter), "chart type slug or label")
	chartCmd.Flags().StringVar(&chX, "x", "", "column for the x role")
	chartCmd.Flags().StringVar(&chY, "y", "", "column for the y role")
	chartCmd.Flags().StringVar(&chColor, "color", "", "column for the color role (empty to unset)")
	chartCmd.Flags().IntVar(&chBins, "bins", chart.DefaultBins, "histogram bins (5-100, default from config)")
	chartCmd.Flags().StringVar(&chFormat, "format", "png", "output format: png | html | json")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "output path (default {Chart_Label}_{timestamp}.{format})")
	chartCmd.Flags().IntVar(&chWidth, "width", 0, "PNG width in pixels (default from config)")
	chartCmd.Flags().IntVar(&chHeight, "height", 0, "PNG height in pixels (default from config)")
}
