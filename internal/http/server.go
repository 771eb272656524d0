package http

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	appweb "expensetracker/web"
)

// ExpenseService is what the request surface needs from the backend.
type ExpenseService interface {
	Create(ctx context.Context, e core.NewExpense) (core.Expense, error)
	List(ctx context.Context) ([]core.Expense, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context) ([]core.CategoryTotal, error)
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	// AllowedOrigins lists browser origins allowed to call the API; "*" allows any.
	AllowedOrigins []string
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	svc    ExpenseService
	logger *applog.Logger
	audit  *applog.StructuredLogger
	tracer *trace.Middleware
}

// NewServer wires routes and the middleware chain:
// trace -> request logger -> security headers -> CORS -> routes.
func NewServer(addr string, svc ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP})
	}

	s := &Server{
		svc:    svc,
		logger: logger,
		audit:  applog.NewStructuredLogger(logger.WithComponent(applog.ComponentExpense)),
		tracer: trace.NewMiddleware(logger, extractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = newCORS(opts.AllowedOrigins, logger).Handler(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	api := func(h http.HandlerFunc) http.Handler {
		return security.NoStoreMiddleware(h)
	}

	mux.Handle("POST /api/expenses", api(s.handleCreateExpense))
	mux.Handle("POST /api/expenses/{$}", api(s.handleCreateExpense))
	mux.Handle("GET /api/expenses", api(s.handleListExpenses))
	mux.Handle("GET /api/expenses/{$}", api(s.handleListExpenses))
	mux.Handle("GET /api/expenses/summary", api(s.handleSummary))
	mux.Handle("DELETE /api/expenses/{id}", api(s.handleDeleteExpense))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, sub, "index.html")
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}
}

// Metrics exposes the request counters gathered by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newCORS(origins []string, logger *applog.Logger) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{trace.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts.Debug = true
		opts.Logger = corsLogger{logger.WithComponent("cors")}
	}
	return cors.New(opts)
}

// corsLogger adapts rs/cors' Printf logger to slog.
type corsLogger struct {
	logger *applog.Logger
}

func (l corsLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
