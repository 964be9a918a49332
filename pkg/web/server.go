// Package web serves the interactive radar editor.
//
// The page is rendered once with html/template; after that every change
// travels over datastar: form inputs post their signals, and a long-lived
// /events stream morphs the chart whenever the editor commits a revision.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/wellradar/pkg/editor"
	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Layout          layout.Config
	AssetBase       string // URL prefix icons are served under
	Assets          fs.FS  // icon files; nil serves the bundled set
	Sheet           sheet.Source
	PNGScale        float64
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // enables CORS for these origins, e.g. a page embedding /radar.svg
}

// Server is the HTTP editor.
type Server struct {
	router    chi.Router
	editor    *editor.Editor
	layout    layout.Config
	assetBase string
	assets    fs.FS
	sheet     sheet.Source
	pngScale  float64
	shutdown  time.Duration
	origins   []string
	tmpl      *template.Template

	syncGroup singleflight.Group

	doneOnce sync.Once
	done     chan struct{} // closed when the server stops; ends event streams
}

// New creates a configured Server with all routes and middleware.
func New(ed *editor.Editor, opts Options) (*Server, error) {
	if ed == nil {
		return nil, errors.New("web: nil editor")
	}
	if opts.Layout.MaxStrength == 0 {
		opts.Layout = layout.DefaultConfig()
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("web: layout: %w", err)
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web: templates: %w", err)
	}

	s := &Server{
		editor:    ed,
		layout:    opts.Layout,
		assetBase: normalizeBase(opts.AssetBase),
		assets:    opts.Assets,
		sheet:     opts.Sheet,
		pngScale:  opts.PNGScale,
		shutdown:  opts.ShutdownTimeout,
		origins:   opts.AllowedOrigins,
		tmpl:      tmpl,
		done:      make(chan struct{}),
	}
	if s.assets == nil {
		s.assets = BundledAssets()
	}
	if s.pngScale <= 0 {
		s.pngScale = export.DefaultPNGScale
	}
	if s.sheet.MaxStrength < 1 {
		s.sheet.MaxStrength = s.layout.MaxStrength
	}
	if s.shutdown <= 0 {
		s.shutdown = DefaultShutdownTimeout
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("wr: editor listening on http://%s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("wr: shutting down editor...")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// Close ends all open event streams. It is safe to call more than once.
func (s *Server) Close() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Datastar-Request", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/debug/metrics", s.handleMetrics)

	// The event stream lives as long as the page; keep it out of the timeout.
	r.Get("/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/", s.handleIndex)
		r.Get("/radar.svg", s.handleSVG)
		r.Get("/radar.png", s.handlePNG)
		r.Get("/layout.json", s.handleLayout)
		r.Get("/report.md", s.handleReport)

		r.Post("/title", s.handleTitle)
		r.Post("/sync", s.handleSync)
		r.Route("/sectors/{index}", func(r chi.Router) {
			r.Post("/name", s.handleName)
			r.Post("/strength", s.handleStrength)
			r.Post("/icon", s.handleIcon)
		})
	})

	r.Handle(s.assetBase+"*", http.StripPrefix(s.assetBase, http.FileServerFS(s.assets)))
	return r
}

// frame lays out the committed radar.
func (s *Server) frame() (model.Radar, layout.Frame) {
	r := s.editor.Snapshot()
	return r, export.ComputeFrame(r, s.layout)
}

func normalizeBase(base string) string {
	if base == "" {
		base = model.DefaultAssetBase
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
