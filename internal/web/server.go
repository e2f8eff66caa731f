// Package web serves the browser interface: upload, data overview,
// visualization studio, profiling report and downloads.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KaramelBytes/insightigraph/internal/analysis"
	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/render"
)

// Config controls the server. Callers start from DefaultConfig; New fills in
// the address, upload limit, preview size and clock when left zero.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	PreviewRows    int
	CSV            dataset.Options
	Render         render.Options
	Report         analysis.Options
	// Now stamps artifact names; tests pin it.
	Now func() time.Time
}

// DefaultConfig mirrors the configuration file defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           "localhost:8501",
		MaxUploadBytes: 200 << 20,
		PreviewRows:    10,
		CSV:            dataset.DefaultOptions(),
		Render:         render.DefaultOptions(),
		Report:         analysis.DefaultOptions(),
		Now:            time.Now,
	}
}

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server is the InsightiGraph web application.
type Server struct {
	cfg      Config
	sessions *Store
	handler  http.Handler
}

// New builds a server with a fresh session store.
func New(cfg Config) *Server {
	d := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = d.PreviewRows
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Render.EChartsURL == "" {
		cfg.Render.EChartsURL = render.DefaultEChartsURL
	}
	s := &Server{cfg: cfg, sessions: NewStore()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("GET /studio", s.handleStudio)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/document", s.handleReportDocument)
	mux.HandleFunc("GET /download/csv", s.handleDownloadCSV)
	mux.HandleFunc("GET /download/chart.png", s.handleDownloadPNG)
	mux.HandleFunc("GET /download/chart.html", s.handleDownloadHTML)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.handler = logRequests(s.withSession(mux))
	return s
}

// Handler exposes the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Sessions exposes the session store.
func (s *Server) Sessions() *Store { return s.sessions }

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveErr := make(chan error, 1)
	logging.Info().Add(logging.Str("addr", s.cfg.Addr)).Msg("insightigraph listening")
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
