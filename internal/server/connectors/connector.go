// Package connectors talks to the external MCP systems. Each connector knows
// how to probe credentials and pull project data for one service type; the
// Registry dispatches on the type and satisfies mcp.Prober.
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

var (
	// ErrBadCredentials means the upstream rejected the stored credentials.
	ErrBadCredentials = errors.New("upstream rejected credentials")

	// ErrUnsupported means no connector is registered for the service type.
	ErrUnsupported = errors.New("unsupported service type")
)

// ProjectInfo is the upstream description of a project.
type ProjectInfo struct {
	Key  string
	Name string
	URL  string
	Type string
}

// WorkItem is one issue/work item pulled from upstream.
type WorkItem struct {
	ExternalID  string
	Title       string
	Type        string
	Status      string
	Assignee    string
	StoryPoints *float64
}

// TeamMember is one project member pulled from upstream.
type TeamMember struct {
	ExternalID  string
	DisplayName string
	Email       string
	Role        string
	Active      bool
}

// Connector integrates one external system.
type Connector interface {
	Probe(ctx context.Context, svc *mcp.Service) error
	FetchProject(ctx context.Context, svc *mcp.Service, key string) (*ProjectInfo, error)
	FetchWorkItems(ctx context.Context, svc *mcp.Service, key string) ([]WorkItem, error)
	FetchTeamMembers(ctx context.Context, svc *mcp.Service, key string) ([]TeamMember, error)
}

// Registry dispatches to the connector for a service's type.
type Registry struct {
	byType map[mcp.ServiceType]Connector
}

// NewRegistry builds a registry over the implemented connectors. client may
// be nil; a default with a 10s timeout is used then.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Registry{
		byType: map[mcp.ServiceType]Connector{
			mcp.TypeGitHub:      &GitHub{http: client},
			mcp.TypeJira:        &Jira{http: client},
			mcp.TypeAzureDevOps: &AzureDevOps{http: client},
		},
	}
}

// ForType returns the connector for t.
func (r *Registry) ForType(t mcp.ServiceType) (Connector, error) {
	c, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
	return c, nil
}

// Probe implements mcp.Prober.
func (r *Registry) Probe(ctx context.Context, svc *mcp.Service) error {
	c, err := r.ForType(svc.Type)
	if err != nil {
		return err
	}
	return c.Probe(ctx, svc)
}

// doJSON executes req and decodes a 2xx response body into out (which may be
// nil). 401/403 map to ErrBadCredentials.
func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrBadCredentials
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Host, err)
	}
	return nil
}
