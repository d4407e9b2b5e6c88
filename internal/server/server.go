// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the wiring layer: it decides which URL maps to which handler, which
// middleware runs where, and how the server stops. Services arrive already
// built (see internal/cli), so the router can be exercised in tests without
// a listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/solarcycle/internal/auth"
	"github.com/sakif/solarcycle/internal/handler"
	"github.com/sakif/solarcycle/internal/health"
	"github.com/sakif/solarcycle/internal/middleware"
	"github.com/sakif/solarcycle/internal/repository"
	"github.com/sakif/solarcycle/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	SecureCookies   bool

	// SweepInterval > 0 starts the periodic expiry sweep alongside the server.
	SweepInterval time.Duration
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	Store     repository.Store
	Tokens    *auth.TokenService
	Auth      *service.AuthService
	Panels    *service.PanelService
	Directory *service.DirectoryService
	Sweep     *service.SweepService // may be nil when SweepInterval is 0
}

// Server represents the HTTP server and all its dependencies. It owns the
// store and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	deps   Deps
	logger *slog.Logger
}

func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Tokens == nil || deps.Auth == nil || deps.Panels == nil || deps.Directory == nil {
		return nil, errors.New("server: missing dependency")
	}
	if cfg.SweepInterval > 0 && deps.Sweep == nil {
		return nil, errors.New("server: sweep interval set without a sweep service")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all middleware and route handlers.
//
//	GET    /healthz                 → liveness
//	GET    /readyz                  → store reachable
//	POST   /api/auth/register       → create account + session
//	POST   /api/auth/login          → session
//	POST   /api/auth/logout         → clear session
//	GET    /api/recyclers           → public directory
//	GET    /api/me                  → current user        (auth)
//	GET    /api/dashboard           → panels + summary    (auth)
//	POST   /api/panels              → add panel           (auth)
//	DELETE /api/panels/{id}         → remove panel        (auth)
//
// Middleware order matters: RequestID runs first so the logger can see it,
// Recoverer runs last so a panic still produces a logged 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	health.RegisterRoutes(s.router, s.deps.Store, s.logger)

	authHandler := handler.NewAuthHandler(s.deps.Auth, s.config.SecureCookies, s.logger)
	panelHandler := handler.NewPanelHandler(s.deps.Panels, s.logger)
	recyclerHandler := handler.NewRecyclerHandler(s.deps.Directory, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/recyclers", recyclerHandler.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.deps.Tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/dashboard", panelHandler.HandleDashboard)
			r.Post("/panels", panelHandler.HandleCreate)
			r.Delete("/panels/{id}", panelHandler.HandleDelete)
		})
	})
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully:
//  1. stop accepting connections and let in-flight requests finish
//  2. stop the sweep scheduler and wait for a running sweep
//  3. close the store
func (s *Server) Start(ctx context.Context) error {
	defer s.deps.Store.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	var wg sync.WaitGroup
	if s.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deps.Sweep.Schedule(ctx, s.config.SweepInterval)
		}()
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
		stop()

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("graceful shutdown failed: %w", err)
		} else {
			s.logger.Info("server stopped gracefully")
		}
	}

	wg.Wait()
	return runErr
}
