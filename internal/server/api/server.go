// Package api exposes the RampForge REST surface over chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/mcp"
	"github.com/rampforge/rampforge/internal/server/metrics"
	"github.com/rampforge/rampforge/internal/server/projects"
	"github.com/rampforge/rampforge/internal/server/sessions"
	"github.com/rampforge/rampforge/internal/server/users"
)

type Server struct {
	users    *users.Service
	sessions *sessions.Service
	mcp      *mcp.Manager
	projects *projects.Service
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewServer(
	usersSvc *users.Service,
	sessionsSvc *sessions.Service,
	mcpMgr *mcp.Manager,
	projectsSvc *projects.Service,
	m *metrics.Metrics,
	logger logging.Logger,
) *Server {
	return &Server{
		users:    usersSvc,
		sessions: sessionsSvc,
		mcp:      mcpMgr,
		projects: projectsSvc,
		metrics:  m,
		logger:   logger.With("module", "api"),
	}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.handleLogout)
				r.Get("/me", s.handleCurrentUser)
				r.Put("/me", s.handleUpdateProfile)
				r.Get("/verify", s.handleVerify)
			})
		})

		r.Route("/mcp/services", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListServices)
			r.Get("/{id}", s.handleGetService)
			r.Post("/{id}/test", s.handleTestService)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(users.RoleAdmin, users.RoleTeamLead))
				r.Post("/", s.handleCreateService)
				r.Put("/{id}", s.handleUpdateService)
				r.Delete("/{id}", s.handleDeleteService)
			})
		})

		r.Route("/pm", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/projects", s.handleListProjects)
			r.Get("/projects/{id}/overview", s.handleProjectOverview)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(users.RoleAdmin, users.RoleTeamLead))
				r.Post("/sync", s.handleSyncProject)
			})
		})
	})

	return r
}
