package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mediguide-lk/mediguide/internal/accounts"
	"github.com/mediguide-lk/mediguide/internal/app"
	"github.com/mediguide-lk/mediguide/internal/audit"
	"github.com/mediguide-lk/mediguide/internal/history"
	"github.com/mediguide-lk/mediguide/internal/inquiries"
	"github.com/mediguide-lk/mediguide/internal/notifications"
	"github.com/mediguide-lk/mediguide/internal/orchestrator"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins (dev mode)
	RequestTimeout time.Duration // per-request deadline; websocket streams are exempt
}

// Server is the MediGuide HTTP API.
type Server struct {
	cfg        Config
	app        *app.App
	router     chi.Router
	httpServer *http.Server
}

// New creates a server exposing every service owned by a.
func New(cfg Config, a *app.App) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	s := &Server{cfg: cfg, app: a}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(timeoutExceptStreams(s.cfg.RequestTimeout))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(accounts.Middleware(s.app.Tokens))
		r.Use(withActor)

		accounts.RegisterRoutes(r, s.app.Accounts, s.app.Tokens)
		orchestrator.RegisterRoutes(r, s.app.Orchestrator)
		notifications.RegisterRoutes(r, s.app.Notifications)
		inquiries.RegisterRoutes(r, s.app.Inquiries)
		registerThemeRoutes(r, s.app.KV, s.app.Audit)
		if s.app.History != nil {
			history.RegisterRoutes(r, s.app.History)
		}
		r.Group(func(r chi.Router) {
			r.Use(accounts.RequireAdmin)
			audit.RegisterRoutes(r, s.app.Audit)
		})
	})

	return r
}

// withActor tags advisory requests with the signed-in user so observers can
// attribute them.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := accounts.ClaimsFrom(r.Context()); c != nil {
			r = r.WithContext(orchestrator.WithActor(r.Context(), c.UserID))
		}
		next.ServeHTTP(w, r)
	})
}

func timeoutExceptStreams(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("mediguide server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
