package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/analysis"
	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/utils"
	"github.com/KaramelBytes/insightigraph/internal/views"
	"github.com/spf13/cobra"
)

// reportFlags are the profiling flags shared by analyze and analyze-batch.
type reportFlags struct {
	format     string
	sampleRows int
	groupBy    []string
	corr       bool
	corrGroups bool
	outliers   bool
	outlierThr float64
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "md", "report format: md | html")
	cmd.Flags().IntVar(&f.sampleRows, "sample-rows", 0, "number of sample rows to include (0 = config sample_rows)")
	cmd.Flags().StringSliceVar(&f.groupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	cmd.Flags().BoolVar(&f.corr, "correlations", true, "compute Pearson correlations among numeric columns (default from config)")
	cmd.Flags().BoolVar(&f.corrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	cmd.Flags().BoolVar(&f.outliers, "outliers", true, "compute robust outlier counts (MAD)")
	cmd.Flags().Float64Var(&f.outlierThr, "outlier-threshold", 0, "robust |z| threshold for outliers (0 = config report_outlier_threshold)")
}

// ext validates the format and returns the report file extension.
func (f *reportFlags) ext() (string, error) {
	switch strings.ToLower(strings.TrimSpace(f.format)) {
	case "md", "markdown":
		return ".md", nil
	case "html":
		return ".html", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use md|html)", f.format)
}

// options resolves the profiling options; config supplies what the flags
// leave unset.
func (f *reportFlags) options(cmd *cobra.Command, in numberSeparators) analysis.Options {
	c := currentConfig()
	opt := analysis.DefaultOptions()
	opt.SampleRows = c.SampleRows
	if f.sampleRows > 0 {
		opt.SampleRows = f.sampleRows
	}
	opt.Correlations = c.ReportCorrelations
	if cmd.Flags().Changed("correlations") {
		opt.Correlations = f.corr
	}
	opt.OutlierThreshold = c.ReportOutlierThreshold
	if f.outlierThr > 0 {
		opt.OutlierThreshold = f.outlierThr
	}
	opt.Outliers = f.outliers
	opt.GroupBy = f.groupBy
	opt.CorrPerGroup = f.corrGroups
	opt.DecimalSeparator = in.decimal
	opt.ThousandsSeparator = in.thousands
	return opt
}

type numberSeparators struct{ decimal, thousands rune }

func (f *inputFlags) separators() numberSeparators {
	dec, _ := parseDecimal(f.decimal)
	thou, _ := parseThousands(f.thousands)
	return numberSeparators{dec, thou}
}

// renderReport profiles ds and renders the report in the format of ext.
func renderReport(ctx context.Context, ds *dataset.Dataset, opt analysis.Options, ext string) ([]byte, error) {
	rep := analysis.Profile(ds, opt)
	for _, w := range rep.Warnings {
		logging.Warn().Add(logging.File(ds.Name)).Add(logging.Str("warning", w)).Msg("profiling")
	}
	if ext == ".html" {
		var buf bytes.Buffer
		if err := views.ReportDocument(rep, views.Printer("")).Render(ctx, &buf); err != nil {
			return nil, fmt.Errorf("render report: %w", err)
		}
		return buf.Bytes(), nil
	}
	return []byte(rep.Markdown()), nil
}

var (
	anaInput      inputFlags
	anaReport     reportFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX dataset and write a Markdown or HTML report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ext, err := anaReport.ext()
		if err != nil {
			return err
		}
		ds, err := anaInput.load(args[0])
		if err != nil {
			return err
		}
		body, err := renderReport(cmd.Context(), ds, anaReport.options(cmd, anaInput.separators()), ext)
		if err != nil {
			return err
		}

		// Decide where to write: --output path or stdout
		if anaOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		}
		if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	anaReport.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
}
