// Package server exposes the jury over HTTP with server-sent events.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/agentjury"
	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/logging"
)

// Jury is the debate backend served over HTTP. *agentjury.Jury satisfies it.
type Jury interface {
	CheckInput(ctx context.Context, query string) error
	Start(ctx context.Context, req agentjury.Request) (string, <-chan core.Event, error)
}

// Options configures a Server.
type Options struct {
	// ModelOptions lists the backing models a request may select.
	ModelOptions []string
	// RateLimit is the number of debates a client may start per RateWindow.
	RateLimit  int
	RateWindow time.Duration
	// RequestTimeout bounds a debate stream. Zero disables the limit.
	RequestTimeout    time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// TruncateLength bounds query previews in logs.
	TruncateLength int
	Logger         logging.Logger
}

// Server serves the debate API.
type Server struct {
	jury    Jury
	limiter *RateLimiter
	opts    Options
	logger  logging.Logger
	router  chi.Router
}

// New creates a Server. A nil jury yields a server that answers debate
// requests with 500 until configured.
func New(jury Jury, optFns ...func(o *Options)) *Server {
	opts := Options{
		ModelOptions:      agentjury.DefaultModelOptions,
		RateLimit:         10,
		RateWindow:        time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		jury:    jury,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateWindow),
		opts:    opts,
		logger:  opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/debate", s.handleDebate)

		r.Group(func(r chi.Router) {
			r.Use(ServerTiming)
			r.Get("/health", s.handleHealth)
			r.Get("/samples", s.handleSamples)
		})
	})

	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	stopCleanup := s.limiter.StartCleanup(s.opts.RateWindow)
	defer stopCleanup()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// requestLogger returns a logger tagged with the request id, route and method.
func (s *Server) requestLogger(r *http.Request, route string) logging.Logger {
	return s.logger.With("requestId", RequestIDFrom(r.Context()), "route", route, "method", r.Method)
}
