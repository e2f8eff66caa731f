package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	ovInput   inputFlags
	ovPreview int
)

var overviewCmd = &cobra.Command{
	Use:   "overview <file>",
	Short: "Print the overview tables of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := ovInput.load(args[0])
		if err != nil {
			return err
		}
		preview := ovPreview
		if !cmd.Flags().Changed("preview-rows") {
			preview = currentConfig().PreviewRows
		}
		writeOverview(cmd.OutOrStdout(), ds, preview)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	ovInput.register(overviewCmd)
	overviewCmd.Flags().IntVar(&ovPreview, "preview-rows", 10, "number of leading rows to print")
}

func writeOverview(w io.Writer, ds *dataset.Dataset, preview int) {
	rows, cols := ds.Shape()
	cl := ds.Classify()
	fmt.Fprintf(w, "Dataset: %s\n", ds.Name)
	fmt.Fprintf(w, "Shape: (%d, %d)\n", rows, cols)
	fmt.Fprintf(w, "Numeric columns (%d): %s\n", len(cl.Numeric), strings.Join(cl.Numeric, ", "))
	fmt.Fprintf(w, "Categorical columns (%d): %s\n", len(cl.Categorical), strings.Join(cl.Categorical, ", "))

	if preview > 0 {
		fmt.Fprintln(w, "\nPreview:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(ds.Names(), "\t"))
		for _, row := range ds.Head(preview) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}

	if desc := ds.Describe(); len(desc) > 0 {
		fmt.Fprintln(w, "\nDescriptive statistics:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, s := range desc {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", s.Column, s.Count,
				num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nMissing values:")
	if ds.TotalMissing() == 0 {
		fmt.Fprintln(w, "✓ No missing values found!")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range ds.MissingValues() {
			if m.Count > 0 {
				fmt.Fprintf(tw, "%s\t%d\t(%.1f%%)\n", m.Column, m.Count, m.Percent)
			}
		}
		tw.Flush()
	}

	if corr := ds.Correlation(); corr != nil {
		fmt.Fprintln(w, "\nCorrelation:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(corr.Columns, "\t"))
		for i, name := range corr.Columns {
			cells := make([]string, len(corr.Values[i]))
			for j, v := range corr.Values[i] {
				cells[j] = num(v)
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", name, strings.Join(cells, "\t"))
		}
		tw.Flush()
	}
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}
