package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProfileUpdate carries the mutable profile fields for PUT /auth/me.
// Nil fields are left unchanged by the server.
type ProfileUpdate struct {
	Name             *string            `json:"name,omitempty"`
	Role             *string            `json:"role,omitempty"`
	Skills           []string           `json:"skills,omitempty"`
	LearningProgress map[string]float64 `json:"learning_progress,omitempty"`
}

// ServiceRecord is an MCP integration record as returned by the server.
type ServiceRecord struct {
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

// ServiceConfig is the payload for creating or updating an MCP service.
type ServiceConfig struct {
	ServiceType   string            `json:"service_type"`
	Name          string            `json:"name"`
	Endpoint      string            `json:"endpoint"`
	Credentials   map[string]string `json:"credentials"`
	Enabled       bool              `json:"enabled"`
	Timeout       int               `json:"timeout"`
	RetryAttempts int               `json:"retry_attempts"`
}

// HealthStatus is the result of a connectivity probe against a service.
type HealthStatus struct {
	ServiceID      string `json:"service_id"`
	Status         string `json:"status"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

// ProjectRecord is a synced project-management project.
type ProjectRecord struct {
	ID          string     `json:"id"`
	ServiceID   string     `json:"service_id"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	ProjectType string     `json:"project_type"`
	Status      string     `json:"status"`
	LastSynced  *time.Time `json:"last_synced,omitempty"`
}

// ProjectOverview aggregates a project with its analytics snapshot.
type ProjectOverview struct {
	Project        ProjectRecord  `json:"project"`
	TotalItems     int            `json:"total_items"`
	CompletedItems int            `json:"completed_items"`
	CompletionRate float64        `json:"completion_rate"`
	ItemsByStatus  map[string]int `json:"items_by_status"`
	ItemsByType    map[string]int `json:"items_by_type"`
	ActiveMembers  int            `json:"active_members"`
	ComputedAt     *time.Time     `json:"computed_at,omitempty"`
}

// SyncRequest asks the server to pull a project from an MCP service.
type SyncRequest struct {
	ServiceID  string `json:"service_id"`
	ProjectKey string `json:"project_key"`
}

// SyncStatus reports the outcome of a sync run.
type SyncStatus struct {
	ProjectID         string   `json:"project_id"`
	ServiceID         string   `json:"service_id"`
	SyncStatus        string   `json:"sync_status"`
	WorkItemsSynced   int      `json:"work_items_synced"`
	TeamMembersSynced int      `json:"team_members_synced"`
	Errors            []string `json:"errors,omitempty"`
}

type createdResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ListServices returns all configured MCP services.
func (c *Client) ListServices(ctx context.Context) ([]ServiceRecord, error) {
	var out []ServiceRecord
	code, err := c.do(ctx, http.MethodGet, "/api/v1/mcp/services", nil, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return out, nil
}

// CreateService registers a new MCP service; the server validates the
// credentials against the live endpoint before persisting.
func (c *Client) CreateService(ctx context.Context, cfg ServiceConfig) (string, error) {
	var out createdResponse
	code, err := c.do(ctx, http.MethodPost, "/api/v1/mcp/services", cfg, &out, true)
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated {
		return "", c.statusError(code)
	}
	return out.ID, nil
}

// GetService fetches one MCP service record.
func (c *Client) GetService(ctx context.Context, id string) (*ServiceRecord, error) {
	var out ServiceRecord
	code, err := c.do(ctx, http.MethodGet, "/api/v1/mcp/services/"+url.PathEscape(id), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &out, nil
}

// DeleteService removes an MCP service record.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	code, err := c.do(ctx, http.MethodDelete, "/api/v1/mcp/services/"+url.PathEscape(id), nil, nil, true)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return c.statusError(code)
	}
	return nil
}

// TestService runs a health probe against the service's live endpoint.
func (c *Client) TestService(ctx context.Context, id string) (*HealthStatus, error) {
	var out HealthStatus
	code, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/mcp/services/%s/test", url.PathEscape(id)), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &out, nil
}

// ListProjects returns the synced project-management projects.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectRecord, error) {
	var out []ProjectRecord
	code, err := c.do(ctx, http.MethodGet, "/api/v1/pm/projects", nil, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return out, nil
}

// ProjectOverview returns the dashboard aggregate for one project.
func (c *Client) ProjectOverview(ctx context.Context, id string) (*ProjectOverview, error) {
	var out ProjectOverview
	code, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/pm/projects/%s/overview", url.PathEscape(id)), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &out, nil
}

// SyncProject triggers a pull of project data from the backing MCP service.
func (c *Client) SyncProject(ctx context.Context, req SyncRequest) (*SyncStatus, error) {
	var out SyncStatus
	code, err := c.do(ctx, http.MethodPost, "/api/v1/pm/sync", req, &out, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &out, nil
}
