package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/KaramelBytes/insightigraph/internal/analysis"
	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func mustDataset(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), "data.csv", dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return ds
}

func TestWelcomeShowsUploadError(t *testing.T) {
	html := renderString(t, Welcome(PageContext{Accept: ".csv"}, "boom"))
	for _, want := range []string{"Welcome to InsightiGraph!", "An error occurred: boom", "Please ensure you", `accept=".csv"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("welcome missing %q", want)
		}
	}
	if strings.Contains(renderString(t, Welcome(PageContext{}, "")), "An error occurred") {
		t.Fatalf("error banner shown without error")
	}
}

func TestOverviewTables(t *testing.T) {
	ds := mustDataset(t, "city,temp,rain\nOslo,3,1\nRome,18,\nLima,22,0\n")
	data := NewOverviewData(ds, 10)
	if data.Rows != 3 || data.Cols != 3 || data.Numeric != 2 || data.Text != 1 {
		t.Fatalf("metrics = %+v", data)
	}
	if len(data.Missing) != 1 || data.Missing[0].Column != "rain" {
		t.Fatalf("missing = %+v", data.Missing)
	}
	html := renderString(t, Overview(PageContext{Tab: "overview", FileName: "data.csv"}, data))
	for _, want := range []string{"Data Overview", "Descriptive Statistics", "<th>rain</th>", "Shape of the dataset:</b> (3, 3)", "33.33%", "Correlation"} {
		if !strings.Contains(html, want) {
			t.Fatalf("overview missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "No missing values found!") {
		t.Fatalf("success banner shown with missing values")
	}
}

func TestOverviewNoMissingAndEscaping(t *testing.T) {
	ds := mustDataset(t, "<b>name</b>,n\nx,1\ny,2\n")
	html := renderString(t, Overview(PageContext{}, NewOverviewData(ds, 10)))
	if !strings.Contains(html, "No missing values found!") {
		t.Fatalf("expected success banner")
	}
	if strings.Contains(html, "<b>name</b>") || !strings.Contains(html, "&lt;b&gt;name&lt;/b&gt;") {
		t.Fatalf("column name not escaped")
	}
}

func TestStudioEmbedsOption(t *testing.T) {
	data := StudioData{
		Types:      []Choice{{Value: "scatter", Label: "Scatter Plot", Selected: true}},
		Controls:   []Control{{Name: "bins", Label: "Number of Bins", Range: true, Value: "20", Min: 5, Max: 100}},
		Title:      "a vs. b",
		OptionJSON: `{"title":{"text":"a vs. b"}}`,
		EChartsURL: "https://cdn.example.com/echarts.js",
		PNGLink:    "/download/chart.png?type=scatter",
		HTMLLink:   "/download/chart.html?type=scatter",
	}
	html := renderString(t, Studio(PageContext{Tab: "studio"}, data))
	for _, want := range []string{`chart.setOption({"title":{"text":"a vs. b"}})`, "https://cdn.example.com/echarts.js", "Download as PNG", `min="5"`, "selected"} {
		if !strings.Contains(html, want) {
			t.Fatalf("studio missing %q:\n%s", want, html)
		}
	}

	warned := renderString(t, Studio(PageContext{}, StudioData{Warning: "Heatmap requires at least 2 numeric columns."}))
	if !strings.Contains(warned, "Heatmap requires at least 2 numeric columns.") || strings.Contains(warned, "setOption") {
		t.Fatalf("warning studio = %s", warned)
	}
}

func TestReportTab(t *testing.T) {
	prompt := renderString(t, Report(PageContext{}, false))
	if !strings.Contains(prompt, "Generate Detailed EDA Report") || strings.Contains(prompt, "<iframe") {
		t.Fatalf("prompt page = %s", prompt)
	}
	frame := renderString(t, Report(PageContext{}, true))
	if !strings.Contains(frame, `<iframe src="/report/document"`) {
		t.Fatalf("generated page = %s", frame)
	}
}

func TestReportDocument(t *testing.T) {
	ds := mustDataset(t, "grp,score,note\na,1,x\nb,2,y\na,3,z\nb,5,w\n")
	rep := analysis.Profile(ds, analysis.DefaultOptions())
	html := renderString(t, ReportDocument(rep, nil))
	for _, want := range []string{"Automated EDA Report", "data.csv", "<td>score</td>", "numeric", "categorical"} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q:\n%s", want, html)
		}
	}
	if html := renderString(t, ReportDocument(nil, nil)); !strings.Contains(html, "Automated EDA Report") {
		t.Fatalf("nil report = %s", html)
	}
}

func TestChartDocument(t *testing.T) {
	html := renderString(t, ChartDocument(ChartDoc{Title: "Pie", OptionJSON: `{"series":[]}`, EChartsURL: "https://cdn.example.com/e.js"}))
	for _, want := range []string{"<title>Pie</title>", `src="https://cdn.example.com/e.js"`, `chart.setOption({"series":[]})`} {
		if !strings.Contains(html, want) {
			t.Fatalf("chart document missing %q:\n%s", want, html)
		}
	}
	// pages must stay cloneable after a standalone document renders.
	renderString(t, Welcome(PageContext{}, ""))
}

func TestPrinter(t *testing.T) {
	if got := Printer("").Sprintf("%d", 1000); got != "1,000" {
		t.Fatalf("fallback printer = %q", got)
	}
	if got := Printer("de-DE,de;q=0.9").Sprintf("%d", 1000); got != "1.000" {
		t.Fatalf("german printer = %q", got)
	}
}
