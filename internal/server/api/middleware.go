package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/server/auth"
	"github.com/rampforge/rampforge/internal/server/users"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	tokenKey  contextKey = "token"
)

// ClaimsFromContext returns the session claims set by requireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

func tokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// requireAuth validates the bearer token, rejects deactivated accounts and
// stores the claims plus the raw token in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}
		token := strings.TrimPrefix(header, common.BearerPrefix)

		claims, err := s.sessions.Validate(r.Context(), token)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}

		user, err := s.users.Get(r.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole admits only the listed roles. Must run after requireAuth.
func (s *Server) requireRole(roles ...users.Role) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[string(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				s.writeError(r.Context(), w, common.ErrorUnauthorized)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				s.writeError(r.Context(), w, common.ErrorForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// observe logs every request and feeds the Prometheus counters, labeled by
// the chi route pattern rather than the raw path.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(started)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		if s.metrics != nil {
			s.metrics.ObserveRequest(route, r.Method, ww.Status(), elapsed)
		}
		s.logger.Info(r.Context(), "request served",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", elapsed.String(),
		)
	})
}
