package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"

	"github.com/KaramelBytes/insightigraph/internal/analysis"
	"github.com/KaramelBytes/insightigraph/internal/chart"
	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/parser"
	"github.com/KaramelBytes/insightigraph/internal/render"
	"github.com/KaramelBytes/insightigraph/internal/utils"
	"github.com/KaramelBytes/insightigraph/internal/views"
)

const maxMultipartMemory = 32 << 20

func (s *Server) page(r *http.Request, tab, title string) views.PageContext {
	snap := sessionFrom(r.Context())
	return views.PageContext{
		Title:    title,
		Tab:      tab,
		FileName: snap.FileName,
		CSVLink:  "/download/csv",
		Accept:   strings.Join(parser.Extensions(), ","),
		Loc:      views.Printer(r.Header.Get("Accept-Language")),
	}
}

func serve(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

// loaded returns the session dataset, redirecting to the landing page when
// there is none.
func loaded(w http.ResponseWriter, r *http.Request) (requestSession, bool) {
	snap := sessionFrom(r.Context())
	if !snap.Loaded() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return snap, false
	}
	return snap, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context())
	if !snap.Loaded() {
		serve(w, r, http.StatusOK, views.Welcome(s.page(r, "", ""), ""))
		return
	}
	data := views.NewOverviewData(snap.Dataset, s.cfg.PreviewRows)
	serve(w, r, http.StatusOK, views.Overview(s.page(r, "overview", "Data Overview"), data))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	ds, name, err := s.readUpload(r)
	if err != nil {
		s.sessions.Reset(snap.ID)
		logging.Warn().Add(logging.Session(snap.ID)).Add(logging.ErrorField(err)).Msg("upload rejected")
		page := s.page(r, "", "Upload failed")
		page.FileName = ""
		serve(w, r, http.StatusBadRequest, views.Welcome(page, err.Error()))
		return
	}
	s.sessions.Put(snap.ID, Session{Dataset: ds, FileName: name, UploadedAt: s.cfg.Now()})
	rows, cols := ds.Shape()
	logging.Info().Add(logging.Session(snap.ID)).Add(logging.File(name)).Add(logging.Shape(rows, cols)).Msg("dataset loaded")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) readUpload(r *http.Request) (*dataset.Dataset, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("file exceeds the %d MB upload limit", tooLarge.Limit>>20)
		}
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("no file uploaded: %w", err)
	}
	defer f.Close()
	name := filepath.Base(hdr.Filename)
	ds, err := parser.Parse(name, f, parser.Options{CSV: s.cfg.CSV})
	if err != nil {
		return nil, "", err
	}
	return ds, name, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.sessions.Reset(sessionFrom(r.Context()).ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	snap, ok := loaded(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	t := chart.Scatter
	if v := q.Get("type"); v != "" {
		if parsed, err := chart.ParseType(v); err == nil {
			t = parsed
		}
	}
	cl := snap.Dataset.Classify()
	sel := chart.DefaultSelections(t, cl)
	for _, rs := range chart.Roles(t) {
		if v := q.Get(string(rs.Role)); v != "" {
			sel[string(rs.Role)] = v
		}
	}

	data := views.StudioData{
		Types:      typeChoices(t),
		Controls:   controls(t, cl, sel),
		EChartsURL: s.cfg.Render.EChartsURL,
	}
	req, err := chart.BuildRequest(string(t), sel)
	if err != nil {
		data.Warning = err.Error()
		serve(w, r, http.StatusOK, views.Studio(s.page(r, "studio", "Visualization Studio"), data))
		return
	}
	res := chart.Render(snap.Dataset, req)
	switch {
	case !res.OK():
		data.Warning = res.Warning
	default:
		js, err := render.OptionJSON(res.Figure)
		if err != nil {
			data.Warning = err.Error()
			break
		}
		query := req.Values().Encode()
		data.Title = res.Figure.Title
		data.OptionJSON = js
		data.PNGLink = "/download/chart.png?" + query
		data.HTMLLink = "/download/chart.html?" + query
	}
	logging.Debug().Add(logging.ChartType(string(t))).Add(logging.Str("warning", data.Warning)).Msg("chart rendered")
	serve(w, r, http.StatusOK, views.Studio(s.page(r, "studio", "Visualization Studio"), data))
}

func typeChoices(current chart.Type) []views.Choice {
	out := make([]views.Choice, len(chart.Types))
	for i, t := range chart.Types {
		out[i] = views.Choice{Value: string(t), Label: t.Label(), Selected: t == current}
	}
	return out
}

func controls(t chart.Type, cl dataset.Classification, sel map[string]string) []views.Control {
	var out []views.Control
	for _, rs := range chart.Roles(t) {
		name := string(rs.Role)
		c := views.Control{Name: name, Label: rs.Label, Value: sel[name]}
		if rs.Column == chart.NotAColumn {
			c.Range, c.Min, c.Max = true, chart.MinBins, chart.MaxBins
		} else {
			for _, opt := range chart.Options(rs, cl) {
				label := opt
				if opt == chart.Unbound {
					label = "None"
				}
				c.Choices = append(c.Choices, views.Choice{Value: opt, Label: label, Selected: opt == sel[name]})
			}
		}
		out = append(out, c)
	}
	return out
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := loaded(w, r); !ok {
		return
	}
	generate := r.URL.Query().Get("generate") == "1"
	serve(w, r, http.StatusOK, views.Report(s.page(r, "report", "Auto EDA Report"), generate))
}

func (s *Server) handleReportDocument(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context())
	if !snap.Loaded() {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	rep := analysis.Profile(snap.Dataset, s.cfg.Report)
	serve(w, r, http.StatusOK, views.ReportDocument(rep, views.Printer(r.Header.Get("Accept-Language"))))
}

func attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(body)
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context())
	if !snap.Loaded() {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := snap.Dataset.WriteCSV(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	attach(w, "text/csv; charset=utf-8", utils.ArtifactName("processed_data", "csv", s.cfg.Now()), buf.Bytes())
}

// figure renders the chart described by the query string, answering the
// request itself when that fails.
func (s *Server) figure(w http.ResponseWriter, r *http.Request) (*chart.Figure, bool) {
	snap := sessionFrom(r.Context())
	if !snap.Loaded() {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return nil, false
	}
	req, err := chart.RequestFromValues(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	res := chart.Render(snap.Dataset, req)
	if !res.OK() {
		http.Error(w, res.Warning, http.StatusUnprocessableEntity)
		return nil, false
	}
	return res.Figure, true
}

func (s *Server) handleDownloadPNG(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.figure(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, fig, s.cfg.Render); err != nil {
		logging.Error().Add(logging.ChartType(string(fig.Type))).Add(logging.ErrorField(err)).Msg("png render failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	attach(w, "image/png", utils.ArtifactName(render.ArtifactBase(fig.Type), "png", s.cfg.Now()), buf.Bytes())
}

func (s *Server) handleDownloadHTML(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.figure(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.HTML(r.Context(), &buf, fig, s.cfg.Render); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	attach(w, "text/html; charset=utf-8", utils.ArtifactName(render.ArtifactBase(fig.Type), "html", s.cfg.Now()), buf.Bytes())
}
