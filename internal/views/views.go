// Package views holds the HTML pages and standalone documents served by the
// web application. Pages are html/template bodies exposed as templ
// components so handlers can serve them with templ.Handler.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/insightigraph/internal/analysis"
	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

//go:embed templates/*.html
var files embed.FS

var (
	supported = []language.Tag{language.English, language.German, language.French, language.Spanish}
	matcher   = language.NewMatcher(supported)
	fallback  = message.NewPrinter(language.English)

	// pages is only ever cloned; executing it directly would forbid Clone.
	pages = template.Must(template.New("views").Funcs(funcs(fallback)).ParseFS(files, "templates/*.html"))

	chartPage = template.Must(template.New("chart").ParseFS(files, "templates/chart_document.html")).Lookup("chart_document")
)

// Printer resolves an Accept-Language header to a number printer. Unknown or
// empty headers fall back to English.
func Printer(acceptLanguage string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(acceptLanguage))
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx])
}

func funcs(loc *message.Printer) template.FuncMap {
	return template.FuncMap{
		"int": func(n int) string { return loc.Sprintf("%d", n) },
		"num": func(x float64) string {
			if math.IsNaN(x) {
				return "NaN"
			}
			return loc.Sprintf("%.3f", x)
		},
		"pct": func(x float64) string { return loc.Sprintf("%.2f%%", x) },
		"truncate": analysis.Truncate,
	}
}

// render executes a named page with formatting bound to loc.
func render(name string, loc *message.Printer, data any) templ.Component {
	if loc == nil {
		loc = fallback
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := pages.Clone()
		if err != nil {
			return err
		}
		return t.Funcs(funcs(loc)).ExecuteTemplate(w, name, data)
	})
}

// PageContext is shared by every application page.
type PageContext struct {
	Title    string
	Tab      string // overview | studio | report
	FileName string
	CSVLink  string
	Accept   string // file input accept list
	Loc      *message.Printer
}

// Welcome is the landing page with the upload form. A non-empty errMsg shows
// the ingestion failure banner.
func Welcome(page PageContext, errMsg string) templ.Component {
	return render("welcome", page.Loc, struct {
		Page  PageContext
		Error string
	}{page, errMsg})
}

// OverviewData feeds the data overview tab.
type OverviewData struct {
	Rows     int
	Cols     int
	Numeric  int
	Text     int
	Columns  []string
	Preview  [][]string
	Describe []dataset.Summary
	Missing  []dataset.MissingCount // columns with at least one missing cell
	Corr     *dataset.CorrMatrix
}

// NewOverviewData collects the overview tables for ds.
func NewOverviewData(ds *dataset.Dataset, previewRows int) OverviewData {
	cl := ds.Classify()
	rows, cols := ds.Shape()
	od := OverviewData{
		Rows:     rows,
		Cols:     cols,
		Numeric:  len(cl.Numeric),
		Text:     len(cl.Categorical),
		Columns:  cl.All,
		Preview:  ds.Head(previewRows),
		Describe: ds.Describe(),
		Corr:     ds.Correlation(),
	}
	for _, m := range ds.MissingValues() {
		if m.Count > 0 {
			od.Missing = append(od.Missing, m)
		}
	}
	return od
}

// Overview is the data overview tab.
func Overview(page PageContext, data OverviewData) templ.Component {
	return render("overview", page.Loc, struct {
		Page PageContext
		Data OverviewData
	}{page, data})
}

// Choice is one option of a select element.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Control is one chart selector. Range controls render as a number input.
type Control struct {
	Name    string
	Label   string
	Choices []Choice
	Range   bool
	Value   string
	Min     int
	Max     int
}

// StudioData feeds the visualization studio tab.
type StudioData struct {
	Types      []Choice
	Controls   []Control
	Title      string
	Warning    string
	Info       string
	OptionJSON string
	EChartsURL string
	PNGLink    string
	HTMLLink   string
}

// Studio is the visualization studio tab.
func Studio(page PageContext, data StudioData) templ.Component {
	return render("studio", page.Loc, struct {
		Page   PageContext
		Data   StudioData
		Option template.JS
	}{page, data, template.JS(data.OptionJSON)})
}

// Report is the profiling report tab. When generate is false it shows the
// prompt to build the report; otherwise it embeds the report document.
func Report(page PageContext, generate bool) templ.Component {
	return render("report", page.Loc, struct {
		Page     PageContext
		Generate bool
	}{page, generate})
}

// ReportDocument is the standalone HTML profiling report.
func ReportDocument(rep *analysis.Report, loc *message.Printer) templ.Component {
	if rep == nil {
		rep = &analysis.Report{}
	}
	return render("report_document", loc, struct {
		Report *analysis.Report
		Pairs  []analysis.PairCorr
		Kinds  map[string]int
	}{rep, rep.TopPairs(10), rep.KindCounts()})
}

// ChartDoc describes a standalone interactive chart page.
type ChartDoc struct {
	Title      string
	OptionJSON string
	EChartsURL string
}

// ChartDocument renders doc as a self-contained HTML page that loads ECharts
// from doc.EChartsURL.
func ChartDocument(doc ChartDoc) templ.Component {
	return templ.FromGoHTML(chartPage, struct {
		Title  string
		Option template.JS
		Script string
	}{doc.Title, template.JS(doc.OptionJSON), doc.EChartsURL})
}
