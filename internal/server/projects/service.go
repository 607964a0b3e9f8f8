// Package projects mirrors project-management data pulled through the MCP
// connectors and serves precomputed analytics over it.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/connectors"
	"github.com/rampforge/rampforge/internal/server/mcp"
)

// ServiceSource resolves MCP service records. The mcp.Manager satisfies it.
type ServiceSource interface {
	Get(ctx context.Context, id string) (*mcp.Service, error)
}

// ConnectorSource resolves a connector for a service type. The
// connectors.Registry satisfies it.
type ConnectorSource interface {
	ForType(t mcp.ServiceType) (connectors.Connector, error)
}

type Service struct {
	repo       Repository
	services   ServiceSource
	connectors ConnectorSource
	logger     logging.Logger
}

func NewService(repo Repository, services ServiceSource, conns ConnectorSource, logger logging.Logger) *Service {
	return &Service{
		repo:       repo,
		services:   services,
		connectors: conns,
		logger:     logger.With("module", "projects"),
	}
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

// Overview returns a project together with its analytics. A project that has
// never finished a full sync gets a zero-valued analytics block.
func (s *Service) Overview(ctx context.Context, id string) (*Project, *Analytics, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	a, err := s.repo.GetAnalytics(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		a = &Analytics{
			ProjectID:     id,
			ItemsByStatus: map[string]int{},
			ItemsByType:   map[string]int{},
		}
	default:
		return nil, nil, err
	}
	return p, a, nil
}

// Sync pulls one project from its MCP service and replaces the mirrored
// data. A failure fetching the project itself fails the run; failures on the
// item or member feeds degrade it to a partial sync.
func (s *Service) Sync(ctx context.Context, serviceID, projectKey string) (*SyncResult, error) {
	if serviceID == "" || projectKey == "" {
		return nil, common.ErrorValidation
	}

	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Enabled {
		return nil, fmt.Errorf("service %s is disabled: %w", svc.Name, common.ErrorValidation)
	}

	conn, err := s.connectors.ForType(svc.Type)
	if err != nil {
		return nil, err
	}

	info, err := conn.FetchProject(ctx, svc, projectKey)
	if err != nil {
		s.logger.Error(ctx, "project fetch failed", "service_id", serviceID, "project_key", projectKey, "error", err)
		return &SyncResult{ServiceID: serviceID, Status: SyncFailed, Errors: []string{err.Error()}}, nil
	}

	now := time.Now().UTC()
	project, err := s.repo.UpsertProject(ctx, &Project{
		ServiceID:   serviceID,
		Key:         info.Key,
		Name:        info.Name,
		URL:         info.URL,
		ProjectType: info.Type,
		Status:      "active",
		LastSynced:  &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	result := &SyncResult{ProjectID: project.ID, ServiceID: serviceID, Status: SyncCompleted}

	items, err := conn.FetchWorkItems(ctx, svc, projectKey)
	if err != nil {
		result.Status = SyncPartial
		result.Errors = append(result.Errors, "work items: "+err.Error())
		s.logger.Warn(ctx, "work item fetch failed", "project_id", project.ID, "error", err)
	} else {
		stored := make([]WorkItem, 0, len(items))
		for _, it := range items {
			stored = append(stored, WorkItem{
				ProjectID:   project.ID,
				ExternalID:  it.ExternalID,
				Title:       it.Title,
				Type:        it.Type,
				Status:      it.Status,
				Assignee:    it.Assignee,
				StoryPoints: it.StoryPoints,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		if err := s.repo.ReplaceWorkItems(ctx, project.ID, stored); err != nil {
			return nil, err
		}
		result.WorkItemsSynced = len(stored)
	}

	members, err := conn.FetchTeamMembers(ctx, svc, projectKey)
	if err != nil {
		result.Status = SyncPartial
		result.Errors = append(result.Errors, "team members: "+err.Error())
		s.logger.Warn(ctx, "team member fetch failed", "project_id", project.ID, "error", err)
	} else {
		stored := make([]TeamMember, 0, len(members))
		for _, m := range members {
			stored = append(stored, TeamMember{
				ProjectID:   project.ID,
				ExternalID:  m.ExternalID,
				DisplayName: m.DisplayName,
				Email:       m.Email,
				Role:        m.Role,
				Active:      m.Active,
			})
		}
		if err := s.repo.ReplaceTeamMembers(ctx, project.ID, stored); err != nil {
			return nil, err
		}
		result.TeamMembersSynced = len(stored)
	}

	if err := s.recomputeAnalytics(ctx, project.ID); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "project synced",
		"project_id", project.ID, "status", result.Status,
		"work_items", result.WorkItemsSynced, "team_members", result.TeamMembersSynced)
	return result, nil
}

// completedStatuses are work item statuses counted as done, compared
// case-insensitively.
var completedStatuses = map[string]struct{}{
	"done": {}, "closed": {}, "completed": {}, "resolved": {},
}

func (s *Service) recomputeAnalytics(ctx context.Context, projectID string) error {
	items, err := s.repo.ListWorkItems(ctx, projectID)
	if err != nil {
		return err
	}
	members, err := s.repo.ListTeamMembers(ctx, projectID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	a := &Analytics{
		ProjectID:     projectID,
		TotalItems:    len(items),
		ItemsByStatus: map[string]int{},
		ItemsByType:   map[string]int{},
		ComputedAt:    &now,
	}
	for _, it := range items {
		a.ItemsByStatus[it.Status]++
		a.ItemsByType[it.Type]++
		if _, ok := completedStatuses[strings.ToLower(it.Status)]; ok {
			a.CompletedItems++
		}
	}
	if a.TotalItems > 0 {
		a.CompletionRate = float64(a.CompletedItems) / float64(a.TotalItems)
	}
	for _, m := range members {
		if m.Active {
			a.ActiveMembers++
		}
	}
	return s.repo.SaveAnalytics(ctx, a)
}
