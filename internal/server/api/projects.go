package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rampforge/rampforge/internal/server/projects"
)

type projectResponse struct {
	ID          string     `json:"id"`
	ServiceID   string     `json:"service_id"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	ProjectType string     `json:"project_type"`
	Status      string     `json:"status"`
	LastSynced  *time.Time `json:"last_synced,omitempty"`
}

func toProjectResponse(p *projects.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		ServiceID:   p.ServiceID,
		Key:         p.Key,
		Name:        p.Name,
		URL:         p.URL,
		ProjectType: p.ProjectType,
		Status:      p.Status,
		LastSynced:  p.LastSynced,
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.List(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	out := make([]projectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectResponse(p))
	}
	s.writeJSON(r.Context(), w, http.StatusOK, out)
}

type overviewResponse struct {
	Project        projectResponse `json:"project"`
	TotalItems     int             `json:"total_items"`
	CompletedItems int             `json:"completed_items"`
	CompletionRate float64         `json:"completion_rate"`
	ItemsByStatus  map[string]int  `json:"items_by_status"`
	ItemsByType    map[string]int  `json:"items_by_type"`
	ActiveMembers  int             `json:"active_members"`
	ComputedAt     *time.Time      `json:"computed_at,omitempty"`
}

func (s *Server) handleProjectOverview(w http.ResponseWriter, r *http.Request) {
	p, a, err := s.projects.Overview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, overviewResponse{
		Project:        toProjectResponse(p),
		TotalItems:     a.TotalItems,
		CompletedItems: a.CompletedItems,
		CompletionRate: a.CompletionRate,
		ItemsByStatus:  a.ItemsByStatus,
		ItemsByType:    a.ItemsByType,
		ActiveMembers:  a.ActiveMembers,
		ComputedAt:     a.ComputedAt,
	})
}

type syncRequest struct {
	ServiceID  string `json:"service_id"`
	ProjectKey string `json:"project_key"`
}

type syncResponse struct {
	ProjectID         string   `json:"project_id"`
	ServiceID         string   `json:"service_id"`
	SyncStatus        string   `json:"sync_status"`
	WorkItemsSynced   int      `json:"work_items_synced"`
	TeamMembersSynced int      `json:"team_members_synced"`
	Errors            []string `json:"errors,omitempty"`
}

func (s *Server) handleSyncProject(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	res, err := s.projects.Sync(r.Context(), req.ServiceID, req.ProjectKey)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveSync(res.Status)
	}

	s.writeJSON(r.Context(), w, http.StatusOK, syncResponse{
		ProjectID:         res.ProjectID,
		ServiceID:         res.ServiceID,
		SyncStatus:        res.Status,
		WorkItemsSynced:   res.WorkItemsSynced,
		TeamMembersSynced: res.TeamMembersSynced,
		Errors:            res.Errors,
	})
}
