// Package httpapi exposes the engine over REST. Routes live under /auth and
// responses use a uniform success/error envelope.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/middleware"
)

// Server holds the handler dependencies.
type Server struct {
	engine *identity.Engine
	log    *slog.Logger
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer builds a Server around an engine.
func NewServer(engine *identity.Engine, opts ...ServerOption) *Server {
	s := &Server{engine: engine, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the /auth route tree.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(traceRequests)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh-token", s.handleRefresh)
		r.Post("/password/forgot", s.handleForgotPassword)
		r.Post("/password/reset", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(s.engine))
			r.Get("/profile", s.handleProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/password/change", s.handleChangePassword)
			r.Post("/email/change", s.handleChangeEmail)
			r.Post("/email/verify", s.handleVerifyEmail)
			r.Post("/logout", s.handleLogout)
			r.Post("/logout-all", s.handleLogoutAll)
		})
	})

	return r
}

// claim returns the guard-attached claim. The guard guarantees presence on
// protected routes; a miss means a wiring bug.
func (s *Server) claim(r *http.Request) (identity.Claim, bool) {
	claim, ok := middleware.ClaimFromContext(r.Context())
	if !ok {
		s.log.Error("claim missing on protected route", "path", r.URL.Path)
	}
	return claim, ok
}
