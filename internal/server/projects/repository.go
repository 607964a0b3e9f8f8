package projects

import "context"

type Repository interface {
	UpsertProject(ctx context.Context, p *Project) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	ReplaceWorkItems(ctx context.Context, projectID string, items []WorkItem) error
	ListWorkItems(ctx context.Context, projectID string) ([]WorkItem, error)

	ReplaceTeamMembers(ctx context.Context, projectID string, members []TeamMember) error
	ListTeamMembers(ctx context.Context, projectID string) ([]TeamMember, error)

	SaveAnalytics(ctx context.Context, a *Analytics) error
	GetAnalytics(ctx context.Context, projectID string) (*Analytics, error)
}
