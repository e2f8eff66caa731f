package analysis

import (
	"math"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/KaramelBytes/insightigraph/internal/parser"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Semicolon separated, comma decimals, dot thousands. The ninth data row is
// an outlier in every numeric column.
var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

// Expected values of the first nine rows after unit normalization.
var (
	wantConc   = []float64{500, 600, 550, 700, 650, 680, 520, 750, 3000}
	wantTemp   = fahrenheit(70, 71, 69, 75, 74, 73, 68, 76, 95)
	wantScore  = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	wantLocale = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000}

	groupA = []int{0, 1, 2, 6, 8}
	groupB = []int{3, 4, 5, 7}
)

func profileOptions() Options {
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.MaxRows = 9
	opt.GroupBy = []string{"Group"}
	opt.Correlations = true
	opt.CorrPerGroup = true
	opt.Outliers = true
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	return opt
}

func TestProfileCSVAndMarkdown(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader(strings.Join(csvRows, "\n")), "metrics.csv", dataset.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	rep := Profile(ds, profileOptions())
	checkReport(t, rep, "metrics.csv")

	md := rep.Markdown()
	for _, want := range []string{
		"# Profiling Report: metrics.csv",
		"- Rows: 10 (profiled 9)",
		"Concentration [mg/L]: numeric",
		"outliers: 1 above |z|>3.5",
		"## Group-by summary",
		"- Group=A (n=5)",
		"## Per-group correlations",
		"## Correlations",
		"Score ~ LocaleNumber",
		"## Sample rows",
		"## Notes",
		"processed only 9/10 rows due to MaxRows",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfileXLSXSheetSelection(t *testing.T) {
	path := writeWorkbook(t)

	byName, err := parser.ParseFile(path, parser.Options{SheetName: "Data"})
	if err != nil {
		t.Fatalf("ParseFile by name: %v", err)
	}
	rep := Profile(byName, profileOptions())
	checkReport(t, rep, "analysis_dataset.xlsx")
	if md := rep.Markdown(); !strings.Contains(md, "# Profiling Report: analysis_dataset.xlsx") {
		t.Fatalf("xlsx markdown missing title: %s", md)
	}

	byIndex, err := parser.ParseFile(path, parser.Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("ParseFile by index: %v", err)
	}
	checkReport(t, Profile(byIndex, profileOptions()), "analysis_dataset.xlsx")
}

func TestProfileUndefinedCorrelationIsZero(t *testing.T) {
	ds, err := dataset.New("flat.csv", []string{"a", "b"}, [][]string{{"1", "5"}, {"2", "5"}, {"3", "5"}}, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep := Profile(ds, DefaultOptions())
	if rep.Corr == nil {
		t.Fatalf("corr matrix nil")
	}
	if rep.Corr.Values[0][1] != 0 || rep.Corr.Values[1][1] != 1 {
		t.Fatalf("corr values = %#v", rep.Corr.Values)
	}
}

func TestProfileMissingAndKinds(t *testing.T) {
	ds, err := dataset.New("mixed.csv", []string{"when", "label", "n"}, [][]string{
		{"2024-01-02", "x", "1"},
		{"2024-01-03", "", "NA"},
		{"2024-01-04", "y", "3"},
	}, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep := Profile(ds, DefaultOptions())
	if rep.Processed != 3 || len(rep.Warnings) != 0 {
		t.Fatalf("processed=%d warnings=%v", rep.Processed, rep.Warnings)
	}
	kinds := []string{rep.Cols[0].Kind, rep.Cols[1].Kind, rep.Cols[2].Kind}
	if !slices.Equal(kinds, []string{KindDatetime, KindCategorical, KindNumeric}) {
		t.Fatalf("kinds = %v", kinds)
	}
	if rep.Cols[1].Missing != 1 || rep.Cols[2].Missing != 1 {
		t.Fatalf("missing = %d, %d", rep.Cols[1].Missing, rep.Cols[2].Missing)
	}
	if got := rep.Cols[2].MissingPercent(); !scalar.EqualWithinAbs(got, 100.0/3, 1e-9) {
		t.Fatalf("missing percent = %f", got)
	}
	if rep.Corr != nil {
		t.Fatalf("corr with a single numeric column = %#v", rep.Corr)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("abc", 6); got != "abc" {
		t.Fatalf("Truncate short = %q", got)
	}
}

// writeWorkbook saves csvRows as the second sheet ("Data") of a workbook
// whose first sheet holds a note.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Notes"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if err := f.SetCellStr("Notes", "A1", "see the Data sheet"); err != nil {
		t.Fatalf("set note: %v", err)
	}
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, line := range csvRows {
		var row []any
		for _, cell := range strings.Split(line, ";") {
			row = append(row, cell)
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Data", ref, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	path := filepath.Join(t.TempDir(), "analysis_dataset.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func checkReport(t *testing.T, rep *Report, name string) {
	t.Helper()
	if rep.Name != name || rep.Rows != 10 || rep.Processed != 9 {
		t.Fatalf("report %q rows=%d processed=%d", rep.Name, rep.Rows, rep.Processed)
	}
	if !slices.Equal(rep.Warnings, []string{"processed only 9/10 rows due to MaxRows"}) {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	if len(rep.Samples) != 3 || !slices.Equal(rep.Samples[0], strings.Split(csvRows[1], ";")) {
		t.Fatalf("samples = %#v", rep.Samples)
	}

	numeric := []struct {
		name, unit string
		want       []float64
	}{
		{"Concentration", "mg/L", wantConc},
		{"Temp", "°C", wantTemp},
		{"Score", "", wantScore},
		{"LocaleNumber", "", wantLocale},
	}
	for _, n := range numeric {
		col := column(t, rep, n.name)
		if col.Unit != n.unit {
			t.Fatalf("%s unit = %q, want %q", n.name, col.Unit, n.unit)
		}
		if col.NonNull != len(n.want) {
			t.Fatalf("%s non-null = %d", n.name, col.NonNull)
		}
		got := []float64{col.Min, col.Max, col.Mean, col.Std}
		want := []float64{floats.Min(n.want), floats.Max(n.want), stat.Mean(n.want, nil), stat.StdDev(n.want, nil)}
		if !floats.EqualApprox(got, want, 1e-6) {
			t.Fatalf("%s min/max/mean/std = %v, want %v", n.name, got, want)
		}
	}

	score := column(t, rep, "Score")
	count, maxZ := robustOutliers(wantScore, 3.5)
	if score.OutliersCount != count || !scalar.EqualWithinAbs(score.OutliersMaxAbsZ, maxZ, 1e-6) || score.OutlierThreshold != 3.5 {
		t.Fatalf("score outliers = %d (max |z| %f, thr %f), want %d (%f)",
			score.OutliersCount, score.OutliersMaxAbsZ, score.OutlierThreshold, count, maxZ)
	}

	cat := column(t, rep, "Category")
	if cat.Kind != KindCategorical || len(cat.TopValues) == 0 || cat.TopValues[0] != (CategoryCount{Value: "alpha", Count: 5}) {
		t.Fatalf("category = %s %#v", cat.Kind, cat.TopValues)
	}

	if len(rep.Groups) != 2 {
		t.Fatalf("groups len = %d, want 2", len(rep.Groups))
	}
	for i, g := range []struct {
		key  string
		rows []int
	}{{"Group=A", groupA}, {"Group=B", groupB}} {
		res := rep.Groups[i]
		if res.Key != g.key || res.Size != len(g.rows) {
			t.Fatalf("group %d = %s (n=%d)", i, res.Key, res.Size)
		}
		for metric, vals := range map[string][]float64{"Score": wantScore, "Concentration": wantConc} {
			want := pick(vals, g.rows)
			s := res.Metrics[metric]
			got := []float64{float64(s.Count), s.Min, s.Max, s.Mean}
			exp := []float64{float64(len(want)), floats.Min(want), floats.Max(want), stat.Mean(want, nil)}
			if !floats.EqualApprox(got, exp, 1e-6) {
				t.Fatalf("%s %s summary = %v, want %v", g.key, metric, got, exp)
			}
		}
		corr := stat.Correlation(pick(wantScore, g.rows), pick(wantLocale, g.rows), nil)
		if r, ok := findPair(res.CorrPairs, "Score", "LocaleNumber"); !ok || !scalar.EqualWithinAbs(r, corr, 1e-6) {
			t.Fatalf("%s corr pairs = %#v, want r=%f", g.key, res.CorrPairs, corr)
		}
	}

	if rep.Corr == nil || !slices.Equal(rep.Corr.Columns, []string{"Concentration", "Temp", "Score", "LocaleNumber"}) {
		t.Fatalf("corr matrix = %#v", rep.Corr)
	}
	if got, want := rep.Corr.Values[2][3], stat.Correlation(wantScore, wantLocale, nil); !scalar.EqualWithinAbs(got, want, 1e-6) {
		t.Fatalf("corr score-locale = %f, want %f", got, want)
	}
}

func findPair(pairs []PairCorr, a, b string) (float64, bool) {
	for _, p := range pairs {
		if p.A == a && p.B == b {
			return p.R, true
		}
	}
	return 0, false
}

func column(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

// robustOutliers counts |z| > threshold with z = 0.6745 (x - median) / MAD.
// Inputs here have odd length so the empirical median is exact.
func robustOutliers(vals []float64, threshold float64) (count int, maxAbs float64) {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	mad := stat.Quantile(0.5, stat.Empirical, dev, nil)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		if z := math.Abs(0.6745 * (v - med) / mad); z > threshold {
			count++
			maxAbs = math.Max(maxAbs, z)
		}
	}
	return count, maxAbs
}

func pick(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}

func fahrenheit(fs ...float64) []float64 {
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = (f - 32) * 5.0 / 9.0
	}
	return out
}
