package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the report as a standalone Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	title := r.Name
	if title == "" {
		title = "dataset"
	}
	fmt.Fprintf(&b, "# Profiling Report: %s\n\n", title)

	b.WriteString("## Overview\n\n")
	if r.Processed > 0 && r.Processed < r.Rows {
		fmt.Fprintf(&b, "- Rows: %d (profiled %d)\n", r.Rows, r.Processed)
	} else {
		fmt.Fprintf(&b, "- Rows: %d\n", r.Rows)
	}
	fmt.Fprintf(&b, "- Columns: %d\n", len(r.Cols))
	kinds := r.KindCounts()
	for _, k := range []string{KindNumeric, KindCategorical, KindDatetime, KindText, KindUnknown} {
		if kinds[k] > 0 {
			fmt.Fprintf(&b, "- %s columns: %d\n", k, kinds[k])
		}
	}

	b.WriteString("\n## Columns\n\n")
	for _, c := range r.Cols {
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", c.DisplayName(), c.Kind, c.NonNull, c.MissingPercent())
		switch c.Kind {
		case KindNumeric:
			fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n## Group-by summary\n\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", g.Key, g.Size)
			keys := g.MetricNames()
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  - %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max)
			}
		}
		writeGroupCorrelations(&b, r.Groups)
	}

	if pairs := r.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n## Correlations\n\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Sample rows\n\n")
		writeSampleTable(&b, r)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func writeGroupCorrelations(b *strings.Builder, groups []GroupResult) {
	header := false
	for _, g := range groups {
		if len(g.CorrPairs) == 0 {
			continue
		}
		if !header {
			b.WriteString("\n## Per-group correlations\n\n")
			header = true
		}
		fmt.Fprintf(b, "- %s:\n", g.Key)
		pairs := g.CorrPairs
		if len(pairs) > 8 {
			pairs = pairs[:8]
		}
		for _, p := range pairs {
			fmt.Fprintf(b, "  - %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}
}

func writeSampleTable(b *strings.Builder, r *Report) {
	names := make([]string, len(r.Cols))
	rule := make([]string, len(r.Cols))
	for i, c := range r.Cols {
		names[i] = safeVal(safeName(c.Name))
		rule[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n| %s |\n", strings.Join(names, " | "), strings.Join(rule, " | "))
	for _, row := range r.Samples {
		cells := make([]string, len(r.Cols))
		for i := range r.Cols {
			if i < len(row) {
				cells[i] = safeVal(Truncate(row[i], 80))
			}
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
}

// Truncate shortens s to at most n bytes, marking the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n || n < 4 {
		return s
	}
	return s[:n-3] + "..."
}
