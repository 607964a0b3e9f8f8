package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

type serviceResponse struct {
	ID            string     `json:"id"`
	ServiceType   string     `json:"service_type"`
	Name          string     `json:"name"`
	Endpoint      string     `json:"endpoint"`
	Enabled       bool       `json:"enabled"`
	Status        string     `json:"status"`
	LastConnected *time.Time `json:"last_connected,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// toServiceResponse deliberately omits the stored credentials.
func toServiceResponse(svc *mcp.Service) serviceResponse {
	return serviceResponse{
		ID:            svc.ID,
		ServiceType:   string(svc.Type),
		Name:          svc.Name,
		Endpoint:      svc.Endpoint,
		Enabled:       svc.Enabled,
		Status:        string(svc.Status),
		LastConnected: svc.LastConnected,
		LastError:     svc.LastError,
		CreatedAt:     svc.CreatedAt,
		UpdatedAt:     svc.UpdatedAt,
	}
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.mcp.List(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	out := make([]serviceResponse, 0, len(list))
	for _, svc := range list {
		out = append(out, toServiceResponse(svc))
	}
	s.writeJSON(r.Context(), w, http.StatusOK, out)
}

type serviceConfigRequest struct {
	ServiceType   string            `json:"service_type"`
	Name          string            `json:"name"`
	Endpoint      string            `json:"endpoint"`
	Credentials   map[string]string `json:"credentials"`
	Enabled       bool              `json:"enabled"`
	Timeout       int               `json:"timeout"`
	RetryAttempts int               `json:"retry_attempts"`
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	svc, err := s.mcp.Create(r.Context(), mcp.CreateParams{
		Type:           mcp.ServiceType(req.ServiceType),
		Name:           req.Name,
		Endpoint:       req.Endpoint,
		Credentials:    req.Credentials,
		Enabled:        req.Enabled,
		TimeoutSeconds: req.Timeout,
		RetryAttempts:  req.RetryAttempts,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusCreated, createdResponse{ID: svc.ID, Message: "service created"})
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req serviceConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	_, err := s.mcp.Update(r.Context(), chi.URLParam(r, "id"), mcp.CreateParams{
		Type:           mcp.ServiceType(req.ServiceType),
		Name:           req.Name,
		Endpoint:       req.Endpoint,
		Credentials:    req.Credentials,
		Enabled:        req.Enabled,
		TimeoutSeconds: req.Timeout,
		RetryAttempts:  req.RetryAttempts,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "service updated"})
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.mcp.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, toServiceResponse(svc))
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := s.mcp.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "service deleted"})
}

type healthResponse struct {
	ServiceID      string `json:"service_id"`
	Status         string `json:"status"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleTestService(w http.ResponseWriter, r *http.Request) {
	health, err := s.mcp.Test(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		ServiceID:      health.ServiceID,
		Status:         string(health.Status),
		ResponseTimeMS: health.ResponseTime.Milliseconds(),
		Error:          health.Error,
	})
}
