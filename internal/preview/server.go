// Package preview serves a resolved path table over HTTP, rendering each
// route on demand.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/render"
)

// Options configure the preview server.
type Options struct {
	// StaticDir is served under /static/ when set.
	StaticDir string
	// Metrics is mounted at /_exportmap/metrics when set.
	Metrics http.Handler
}

// Server renders routes from the current table.
type Server struct {
	mu       sync.RWMutex
	table    pathmap.Table
	renderer render.Renderer

	router chi.Router
}

// New creates a server for table.
func New(table pathmap.Table, r render.Renderer, opts Options) *Server {
	s := &Server{table: table.Clone(), renderer: r}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	router.Get("/_exportmap/routes", s.handleRoutes)
	router.Get("/_exportmap/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Handle("/_exportmap/metrics", opts.Metrics)
	}
	if opts.StaticDir != "" {
		router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}
	router.Get("/*", s.handlePage)

	s.router = router
	return s
}

// Update swaps in a newly resolved table and its renderer.
func (s *Server) Update(table pathmap.Table, r render.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone()
	s.renderer = r
	slog.Info("Preview routes updated", logfields.Count(len(table)), logfields.Fingerprint(table.Fingerprint()))
}

func (s *Server) snapshot() (pathmap.Table, render.Renderer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.renderer
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("Preview server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Route is one table entry in the /_exportmap/routes response.
type Route struct {
	Path   string         `json:"path"`
	Page   string         `json:"page"`
	Params pathmap.Params `json:"params"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	table, _ := s.snapshot()
	routes := make([]Route, 0, len(table))
	for _, p := range table.Paths() {
		routes = append(routes, Route{Path: p, Page: table[p].Page, Params: table[p].Params})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Exportmap-Fingerprint", table.Fingerprint())
	_ = json.NewEncoder(w).Encode(routes)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	table, renderer := s.snapshot()
	p := pathmap.NormalizePath(r.URL.Path)
	target, ok := table[p]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, p, target); err != nil {
		if errors.Is(err, render.ErrNotRenderable) {
			http.Error(w, "page "+target.Page+" is rendered by the host runtime", http.StatusNotImplemented)
			return
		}
		slog.Error("Render failed", logfields.Path(p), logfields.Page(target.Page), logfields.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("Preview request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			slog.Int("status", ww.Status()),
			logfields.Duration(time.Since(start)))
	})
}
