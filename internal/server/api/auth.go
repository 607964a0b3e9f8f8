package api

import (
	"net/http"
	"time"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/server/users"
)

type userResponse struct {
	ID               string             `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Role             string             `json:"role"`
	IsActive         bool               `json:"is_active"`
	Skills           []string           `json:"skills"`
	LearningProgress map[string]float64 `json:"learning_progress"`
	CreatedAt        time.Time          `json:"created_at"`
	LastActive       *time.Time         `json:"last_active,omitempty"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             string(u.Role),
		IsActive:         u.IsActive,
		Skills:           u.Skills,
		LearningProgress: u.LearningProgress,
		CreatedAt:        u.CreatedAt,
		LastActive:       u.LastActive,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.Register(r.Context(), users.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     users.Role(req.Role),
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	token, expires, err := s.sessions.Issue(r.Context(), user)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
		User:        toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Revoke(r.Context(), tokenFromContext(r.Context())); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	user, err := s.users.Get(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toUserResponse(user))
}

type profileUpdateRequest struct {
	Name             *string            `json:"name"`
	Role             *string            `json:"role"`
	Skills           []string           `json:"skills"`
	LearningProgress map[string]float64 `json:"learning_progress"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	upd := users.ProfileUpdate{
		Name:             req.Name,
		Skills:           req.Skills,
		LearningProgress: req.LearningProgress,
	}
	if req.Role != nil {
		role := users.Role(*req.Role)
		upd.Role = &role
	}

	user, err := s.users.UpdateProfile(r.Context(), claims.UserID, upd)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toUserResponse(user))
}

// handleVerify answers 200 for any request that made it through requireAuth.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "ok"})
}
