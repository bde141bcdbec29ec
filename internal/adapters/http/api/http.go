// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/okian/dice/internal/app"
	"github.com/okian/dice/internal/adapters/http/site"
	"github.com/okian/dice/internal/config"
	"github.com/okian/dice/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Roll(ctx context.Context) (int, error)
	RollN(ctx context.Context, count int) ([]int, int, error)

	Now() time.Time
	Uptime() time.Duration
	Memory(ctx context.Context) (MemoryUsage, error)
}

// MemoryUsage mirrors the memory block returned by /api/health.
type MemoryUsage = service.MemoryUsage

// route is one entry of the fixed route table.
type route struct {
	pattern   string // ServeMux pattern
	signature string // advertised in availableEndpoints
	name      string // metrics endpoint label
	cors      bool   // false opts the route out of every cross-origin header
	handler   http.HandlerFunc
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	rollHandler   *RollHandler
	legacyHandler *LegacyHandler

	routes   []route
	byPath   map[string]route
	origins  map[string]struct{}
	static   http.FileSystem
	faults   *faultWriter
	logger   logger.Logger
	notFound http.HandlerFunc
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for faults and access records.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatic serves files from fs for GET requests no route matches.
func WithStatic(fs http.FileSystem) Option {
	return func(s *Server) {
		s.static = fs
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		byPath:  make(map[string]route),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	for _, o := range cfg.AllowedOrigins {
		s.origins[o] = struct{}{}
	}

	s.faults = &faultWriter{production: cfg.Production(), logger: s.logger}
	s.notFound = s.handleNotFound
	s.healthHandler = newHealthHandler(deps, s.faults, s.notFound, cfg.Port, cfg.ServerName)
	s.rollHandler = newRollHandler(deps, s.faults, s.notFound)
	s.legacyHandler = newLegacyHandler(s.notFound, cfg.Port)

	s.routes = []route{
		{pattern: "/api/wakeup", signature: "GET /api/wakeup", name: "wakeup", cors: true, handler: s.healthHandler.HandleWakeup},
		{pattern: "/api/health", signature: "GET /api/health", name: "health", cors: true, handler: s.healthHandler.HandleHealth},
		{pattern: "/api/roll/single", signature: "GET /api/roll/single", name: "roll_single", cors: true, handler: s.rollHandler.HandleSingle},
		{pattern: "/api/roll/multiple/{count}", signature: "GET /api/roll/multiple/:count", name: "roll_multiple", cors: true, handler: s.rollHandler.HandleMultiple},
		// Browsers must reject this response; it demonstrates a missing CORS grant.
		{pattern: "/api/roll-dice", signature: "GET /api/roll-dice", name: "roll_dice", cors: false, handler: s.rollHandler.HandleCORSDemo},
		{pattern: "/test", signature: "GET /test", name: "test", cors: true, handler: s.legacyHandler.HandleTest},
	}
	for _, rt := range s.routes {
		s.byPath[rt.pattern] = rt
	}
	return s
}

// Register attaches all HTTP routes to mux. The root pattern serves static
// files when configured and answers every other request with the JSON 404.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	for _, rt := range s.routes {
		mux.HandleFunc(rt.pattern, MetricsMiddleware(rt.handler, rt.name))
	}

	var fallback http.Handler = s.notFound
	name := "not_found"
	if s.static != nil {
		fallback = site.Handler(s.static, fallback)
		name = "fallback"
	}
	mux.HandleFunc("/", MetricsMiddleware(fallback.ServeHTTP, name))
}

// Handler wraps mux with request ids, panic recovery and the cross-origin filter.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return RequestIDMiddleware(s.logger, s.recoverMiddleware(s.corsFilter(mux)))
}

// Endpoints lists the advertised route signatures in table order.
func (s *Server) Endpoints() []string {
	out := make([]string, len(s.routes))
	for i, rt := range s.routes {
		out[i] = rt.signature
	}
	return out
}

// corsEnabled reports whether the route registered under pattern accepts
// cross-origin headers. Patterns outside the table always do.
func (s *Server) corsEnabled(pattern string) bool {
	rt, ok := s.byPath[pattern]
	if !ok {
		return true
	}
	return rt.cors
}

// Envelope status values.
const (
	statusSuccess = "success"
	statusHealthy = "healthy"
	statusError   = "error"
)

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

type notFoundResponse struct {
	Status             string   `json:"status"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// allowRead reports whether r may reach a GET route; Go's mux does not
// filter methods for patterns registered without one.
func allowRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// handleNotFound answers any request no route accepted.
func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Status:             statusError,
		Message:            "Route not found",
		AvailableEndpoints: s.Endpoints(),
	})
}
