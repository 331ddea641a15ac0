// Package server is an optional read-only HTTP view of the live graph. It
// serves the export renderings and the Prometheus metrics of the session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
	"github.com/TFMV/graphsketch/render"
)

// Source is the session the server reads from. Both methods must be safe to
// call from request goroutines.
type Source interface {
	Snapshot() *models.Graph
	RenderOptions(format string) *render.OutputOptions
}

// Config for the server
type Config struct {
	Addr    string
	Refresh time.Duration // reload interval of the index page
	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Server serves one session over HTTP
type Server struct {
	src     Source
	cfg     Config
	log     *slog.Logger
	handler http.Handler
}

// New creates a server for src
func New(src Source, cfg Config) *Server {
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{src: src, cfg: cfg, log: log.With("component", "server")}

	mux := http.NewServeMux()
	s.route(mux, "/", s.handleIndex())
	s.route(mux, "/graph.svg", s.handleRender("svg"))
	s.route(mux, "/graph.json", s.handleRender("json"))
	s.route(mux, "/graph.dot", s.handleRender("dot"))
	s.route(mux, "/graph.txt", s.handleRender("ascii"))
	s.route(mux, "/api/graph", s.handleAPIGraph())
	s.route(mux, "/api/node", s.handleAPINode())
	if cfg.Metrics != nil {
		s.route(mux, "/metrics", cfg.Metrics.Handler())
	}
	s.handler = mux
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving graph view", "addr", ln.Addr().String())
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// route registers h under path, instrumented with the path as its label
func (s *Server) route(mux *http.ServeMux, path string, h http.Handler) {
	mux.Handle(path, s.instrument(path, h))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(path string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		d := time.Since(start)
		s.cfg.Metrics.RecordHTTPRequest(path, strconv.Itoa(rec.status), d)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", d)
	})
}

// handleIndex serves a page that reloads the SVG rendering
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta http-equiv="refresh" content="%d">
  <title>graphsketch</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
    .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    h1 { margin-top: 0; border-bottom: 2px solid #eee; padding-bottom: 10px; }
    a { margin-right: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <h1>graphsketch</h1>
    <img src="/graph.svg" alt="graph">
    <p>
      <a href="/graph.json">JSON</a>
      <a href="/graph.dot">DOT</a>
      <a href="/graph.txt">ASCII</a>
      <a href="/api/graph">Raw</a>
    </p>
  </div>
</body>
</html>
`, max(1, int(s.cfg.Refresh/time.Second)))
	}
}

// handleRender serves the live graph in one export format. The width and
// height query parameters override the output size.
func (s *Server) handleRender(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := s.src.RenderOptions(format)
		if v := r.URL.Query().Get("width"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				options.Width = float64(n)
			}
		}
		if v := r.URL.Query().Get("height"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				options.Height = float64(n)
			}
		}

		renderer, err := render.GetRenderer(format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		output, err := renderer.Render(s.src.Snapshot(), options)
		if err != nil {
			s.log.Error("render failed", "format", format, "error", err)
			http.Error(w, "Error generating visualization: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", renderer.ContentType())
		w.Write(output)
	}
}

// handleAPIGraph provides the raw graph snapshot as JSON
func (s *Server) handleAPIGraph() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSON(w, s.src.Snapshot())
	}
}

type nodeView struct {
	models.Node
	Neighbors []string `json:"neighbors"`
}

// handleAPINode provides one node of the snapshot and the ids of its
// neighbors, selected with the id query parameter
func (s *Server) handleAPINode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id parameter", http.StatusBadRequest)
			return
		}

		g := s.src.Snapshot()
		node, err := g.FindNodeByID(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		neighbors := g.FindConnectedNodes(id)
		if neighbors == nil {
			neighbors = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		s.writeJSON(w, nodeView{Node: *node, Neighbors: neighbors})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}
