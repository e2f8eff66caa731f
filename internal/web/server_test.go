package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

const shopCSV = "store,units,price\n" +
	"north,10,2.5\n" +
	"south,20,3.0\n" +
	"north,30,\n" +
	"east,40,4.0\n"

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server, *http.Client) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return s, ts, &http.Client{Jar: jar}
}

func get(t *testing.T, c *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func upload(t *testing.T, c *http.Client, url, filename, body string) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := c.Post(url+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestHealthz(t *testing.T) {
	_, ts, c := newTestServer(t, nil)
	resp, body := get(t, c, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestWelcomeWithoutDataset(t *testing.T) {
	_, ts, c := newTestServer(t, nil)
	resp, body := get(t, c, ts.URL+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Welcome to InsightiGraph!") {
		t.Fatalf("index = %d %s", resp.StatusCode, body)
	}
	// pages needing a dataset fall back to the welcome page
	_, body = get(t, c, ts.URL+"/studio")
	if !strings.Contains(body, "Welcome to InsightiGraph!") {
		t.Fatalf("studio without dataset = %s", body)
	}
	resp, _ = get(t, c, ts.URL+"/download/csv")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("csv without dataset status = %d", resp.StatusCode)
	}
}

func TestUploadOverviewStudioDownloads(t *testing.T) {
	s, ts, c := newTestServer(t, nil)

	resp, body := upload(t, c, ts.URL, "shop.csv", shopCSV)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d: %s", resp.StatusCode, body)
	}
	for _, want := range []string{"Data Overview", "shop.csv", "Descriptive Statistics", "<th>price</th>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("overview missing %q", want)
		}
	}
	if s.Sessions().Len() != 1 {
		t.Fatalf("sessions = %d, want 1", s.Sessions().Len())
	}

	_, body = get(t, c, ts.URL+"/studio?type=bar&x=store&y=units")
	for _, want := range []string{"Average units by store", "chart.setOption(", "/download/chart.png?"} {
		if !strings.Contains(body, want) {
			t.Fatalf("studio missing %q:\n%s", want, body)
		}
	}

	resp, body = get(t, c, ts.URL+"/download/chart.png?type=bar&x=store&y=units")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(body, "\x89PNG") {
		t.Fatalf("png download = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Bar_Chart_20240102_030405.png") {
		t.Fatalf("png disposition = %q", cd)
	}

	resp, body = get(t, c, ts.URL+"/download/chart.html?type=pie&x=store")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "echarts") || !strings.Contains(body, "Distribution of store") {
		t.Fatalf("html download = %d %s", resp.StatusCode, body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Pie_Chart_20240102_030405.html") {
		t.Fatalf("html disposition = %q", cd)
	}

	resp, body = get(t, c, ts.URL+"/download/csv")
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "processed_data_20240102_030405.csv") {
		t.Fatalf("csv disposition = %q", cd)
	}
	ds, err := dataset.ReadCSV(strings.NewReader(body), "again.csv", dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if rows, cols := ds.Shape(); rows != 4 || cols != 3 {
		t.Fatalf("csv shape = %d x %d", rows, cols)
	}
}

func TestStudioWarningsAndBadDownloads(t *testing.T) {
	_, ts, c := newTestServer(t, nil)
	upload(t, c, ts.URL, "one.csv", "name,score\na,1\nb,2\n")

	_, body := get(t, c, ts.URL+"/studio?type=heatmap")
	if !strings.Contains(body, "Heatmap requires at least 2 numeric columns.") || strings.Contains(body, "chart.setOption(") {
		t.Fatalf("heatmap studio = %s", body)
	}
	resp, body := get(t, c, ts.URL+"/download/chart.png?type=pair")
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(body, "Pair Plot requires at least 2 numeric columns.") {
		t.Fatalf("pair download = %d %s", resp.StatusCode, body)
	}
	resp, _ = get(t, c, ts.URL+"/download/chart.png?type=histogram&x=score&bins=2")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad bins status = %d", resp.StatusCode)
	}
	resp, _ = get(t, c, ts.URL+"/download/chart.png?type=line&x=name&y=missing")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown column status = %d", resp.StatusCode)
	}
	// unknown type falls back to the scatter selector
	_, body = get(t, c, ts.URL+"/studio?type=radar")
	if !strings.Contains(body, `<option value="scatter" selected>`) {
		t.Fatalf("fallback studio = %s", body)
	}
}

func TestStudioColumnNamedNone(t *testing.T) {
	_, ts, c := newTestServer(t, nil)
	upload(t, c, ts.URL, "none.csv", "None,units\na,1\nb,2\na,3\n")

	_, body := get(t, c, ts.URL+"/studio?type=pie&x=None")
	if !strings.Contains(body, "Distribution of None") || !strings.Contains(body, "chart.setOption(") {
		t.Fatalf("pie over None column = %s", body)
	}
	_, body = get(t, c, ts.URL+"/studio?type=box&y=units")
	for _, want := range []string{`<option value="" selected>None</option>`, `<option value="None">None</option>`} {
		if !strings.Contains(body, want) {
			t.Fatalf("box studio missing %q:\n%s", want, body)
		}
	}
	_, body = get(t, c, ts.URL+"/studio?type=box&y=units&x=None")
	if !strings.Contains(body, `<option value="None" selected>None</option>`) || !strings.Contains(body, "chart.setOption(") {
		t.Fatalf("box grouped by None = %s", body)
	}
}

func TestReportPages(t *testing.T) {
	_, ts, c := newTestServer(t, nil)
	upload(t, c, ts.URL, "shop.csv", shopCSV)

	_, body := get(t, c, ts.URL+"/report")
	if !strings.Contains(body, "Generate Detailed EDA Report") {
		t.Fatalf("report prompt = %s", body)
	}
	_, body = get(t, c, ts.URL+"/report?generate=1")
	if !strings.Contains(body, `<iframe src="/report/document"`) {
		t.Fatalf("report frame = %s", body)
	}
	resp, body := get(t, c, ts.URL+"/report/document")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Automated EDA Report") || !strings.Contains(body, "<td>units</td>") {
		t.Fatalf("report document = %d %s", resp.StatusCode, body)
	}
}

func TestFailedUploadResetsDataset(t *testing.T) {
	s, ts, c := newTestServer(t, nil)
	upload(t, c, ts.URL, "shop.csv", shopCSV)

	resp, body := upload(t, c, ts.URL, "notes.docx", "binary")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "An error occurred: unsupported file format") || !strings.Contains(body, "Please ensure you") {
		t.Fatalf("error page = %s", body)
	}
	if s.Sessions().Len() != 0 {
		t.Fatalf("dataset kept after failed upload")
	}

	_, body = upload(t, c, ts.URL, "ragged.csv", "a,b\n1,2,3\n")
	if !strings.Contains(body, "too many fields") {
		t.Fatalf("ragged error page = %s", body)
	}

	_, body = upload(t, c, ts.URL, "empty.csv", "")
	if !strings.Contains(body, "no columns to parse from file") {
		t.Fatalf("empty error page = %s", body)
	}
}

func TestUploadSizeLimit(t *testing.T) {
	_, ts, c := newTestServer(t, func(cfg *Config) { cfg.MaxUploadBytes = 512 })
	big := "a,b\n" + strings.Repeat("1,2\n", 1000)
	resp, body := upload(t, c, ts.URL, "big.csv", big)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "An error occurred") {
		t.Fatalf("oversized upload = %d %s", resp.StatusCode, body)
	}
}

func TestClearDiscardsDataset(t *testing.T) {
	s, ts, c := newTestServer(t, nil)
	upload(t, c, ts.URL, "shop.csv", shopCSV)
	resp, err := c.Post(ts.URL+"/clear", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatalf("POST clear: %v", err)
	}
	resp.Body.Close()
	if s.Sessions().Len() != 0 {
		t.Fatalf("dataset kept after clear")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	_, ts, alice := newTestServer(t, nil)
	upload(t, alice, ts.URL, "shop.csv", shopCSV)

	jar, _ := cookiejar.New(nil)
	bob := &http.Client{Jar: jar}
	_, body := get(t, bob, ts.URL+"/")
	if !strings.Contains(body, "Welcome to InsightiGraph!") {
		t.Fatalf("second browser sees another session's dataset")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			st.Put(id, Session{FileName: id})
			_ = st.Get(id)
			if i%2 == 0 {
				st.Reset(id)
			}
		}(i)
	}
	wg.Wait()
	if st.Len() != 8 {
		t.Fatalf("sessions = %d, want 8", st.Len())
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
