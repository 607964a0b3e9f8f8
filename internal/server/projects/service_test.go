package projects_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/connectors"
	"github.com/rampforge/rampforge/internal/server/db"
	"github.com/rampforge/rampforge/internal/server/mcp"
	"github.com/rampforge/rampforge/internal/server/projects"
)

func points(v float64) *float64 { return &v }

type fakeConnector struct {
	project    *connectors.ProjectInfo
	projectErr error
	items      []connectors.WorkItem
	itemsErr   error
	members    []connectors.TeamMember
	membersErr error
}

func (f *fakeConnector) Probe(context.Context, *mcp.Service) error { return nil }

func (f *fakeConnector) FetchProject(context.Context, *mcp.Service, string) (*connectors.ProjectInfo, error) {
	return f.project, f.projectErr
}

func (f *fakeConnector) FetchWorkItems(context.Context, *mcp.Service, string) ([]connectors.WorkItem, error) {
	return f.items, f.itemsErr
}

func (f *fakeConnector) FetchTeamMembers(context.Context, *mcp.Service, string) ([]connectors.TeamMember, error) {
	return f.members, f.membersErr
}

type fakeConnectorSource struct {
	conn connectors.Connector
}

func (f *fakeConnectorSource) ForType(mcp.ServiceType) (connectors.Connector, error) {
	return f.conn, nil
}

type fakeServiceSource struct {
	svc *mcp.Service
}

func (f *fakeServiceSource) Get(_ context.Context, id string) (*mcp.Service, error) {
	if f.svc == nil || f.svc.ID != id {
		return nil, common.ErrorNotFound
	}
	return f.svc, nil
}

func setup(t *testing.T, conn connectors.Connector) (*projects.Service, *projects.SQLRepository, *mcp.Service) {
	t.Helper()
	handle, style, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	now := time.Now().UTC()
	svc := &mcp.Service{
		ID:          "svc-1",
		Type:        mcp.TypeJira,
		Name:        "Team Jira",
		Endpoint:    "https://example.atlassian.net",
		Credentials: map[string]string{"email": "a@b.com", "token": "t"},
		Enabled:     true,
		Status:      mcp.StatusConnected,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, mcp.NewSQLRepository(handle, style).Create(context.Background(), svc))

	repo := projects.NewSQLRepository(handle, style)
	service := projects.NewService(repo, &fakeServiceSource{svc: svc}, &fakeConnectorSource{conn: conn}, logging.Nop())
	return service, repo, svc
}

func healthyConnector() *fakeConnector {
	return &fakeConnector{
		project: &connectors.ProjectInfo{Key: "RF", Name: "RampForge", URL: "https://example/browse/RF", Type: "software"},
		items: []connectors.WorkItem{
			{ExternalID: "RF-1", Title: "Set up CI", Type: "Task", Status: "Done", Assignee: "Alice", StoryPoints: points(3)},
			{ExternalID: "RF-2", Title: "Write docs", Type: "Story", Status: "To Do"},
			{ExternalID: "RF-3", Title: "Fix login", Type: "Bug", Status: "Closed"},
		},
		members: []connectors.TeamMember{
			{ExternalID: "u1", DisplayName: "Alice", Active: true},
			{ExternalID: "u2", DisplayName: "Bob", Active: false},
		},
	}
}

func TestService_Sync(t *testing.T) {
	service, repo, svc := setup(t, healthyConnector())
	ctx := context.Background()

	res, err := service.Sync(ctx, svc.ID, "RF")
	require.NoError(t, err)

	assert.Equal(t, projects.SyncCompleted, res.Status)
	assert.Equal(t, 3, res.WorkItemsSynced)
	assert.Equal(t, 2, res.TeamMembersSynced)
	assert.Empty(t, res.Errors)

	p, err := repo.GetProject(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "RF", p.Key)
	assert.Equal(t, "RampForge", p.Name)
	require.NotNil(t, p.LastSynced)

	items, err := repo.ListWorkItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NotNil(t, items[0].StoryPoints)
	assert.Equal(t, 3.0, *items[0].StoryPoints)
}

func TestService_Sync_ComputesAnalytics(t *testing.T) {
	service, _, svc := setup(t, healthyConnector())
	ctx := context.Background()

	res, err := service.Sync(ctx, svc.ID, "RF")
	require.NoError(t, err)

	p, a, err := service.Overview(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, res.ProjectID, p.ID)

	assert.Equal(t, 3, a.TotalItems)
	assert.Equal(t, 2, a.CompletedItems)
	assert.InDelta(t, 2.0/3.0, a.CompletionRate, 1e-9)
	assert.Equal(t, map[string]int{"Done": 1, "To Do": 1, "Closed": 1}, a.ItemsByStatus)
	assert.Equal(t, map[string]int{"Task": 1, "Story": 1, "Bug": 1}, a.ItemsByType)
	assert.Equal(t, 1, a.ActiveMembers)
	require.NotNil(t, a.ComputedAt)
}

func TestService_Sync_IsRepeatable(t *testing.T) {
	conn := healthyConnector()
	service, repo, svc := setup(t, conn)
	ctx := context.Background()

	first, err := service.Sync(ctx, svc.ID, "RF")
	require.NoError(t, err)

	// A later run with fewer items fully replaces the mirror.
	conn.items = conn.items[:1]
	second, err := service.Sync(ctx, svc.ID, "RF")
	require.NoError(t, err)

	assert.Equal(t, first.ProjectID, second.ProjectID)
	assert.Equal(t, 1, second.WorkItemsSynced)

	items, err := repo.ListWorkItems(ctx, second.ProjectID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	list, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_Sync_ProjectFetchFails(t *testing.T) {
	conn := healthyConnector()
	conn.project = nil
	conn.projectErr = errors.New("boom")
	service, _, svc := setup(t, conn)

	res, err := service.Sync(context.Background(), svc.ID, "RF")
	require.NoError(t, err)
	assert.Equal(t, projects.SyncFailed, res.Status)
	assert.Empty(t, res.ProjectID)
	require.Len(t, res.Errors, 1)
}

func TestService_Sync_PartialOnItemFailure(t *testing.T) {
	conn := healthyConnector()
	conn.items = nil
	conn.itemsErr = connectors.ErrBadCredentials
	service, _, svc := setup(t, conn)
	ctx := context.Background()

	res, err := service.Sync(ctx, svc.ID, "RF")
	require.NoError(t, err)

	assert.Equal(t, projects.SyncPartial, res.Status)
	assert.Zero(t, res.WorkItemsSynced)
	assert.Equal(t, 2, res.TeamMembersSynced)
	require.Len(t, res.Errors, 1)

	// Members still landed, so analytics reflect them.
	_, a, err := service.Overview(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.Zero(t, a.TotalItems)
	assert.Equal(t, 1, a.ActiveMembers)
}

func TestService_Sync_DisabledService(t *testing.T) {
	service, _, svc := setup(t, healthyConnector())
	svc.Enabled = false

	_, err := service.Sync(context.Background(), svc.ID, "RF")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestService_Sync_UnknownService(t *testing.T) {
	service, _, _ := setup(t, healthyConnector())

	_, err := service.Sync(context.Background(), "nope", "RF")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestService_Overview_BeforeFirstSync(t *testing.T) {
	service, repo, svc := setup(t, healthyConnector())
	ctx := context.Background()

	now := time.Now().UTC()
	p, err := repo.UpsertProject(ctx, &projects.Project{
		ServiceID:   svc.ID,
		Key:         "RF",
		Name:        "RampForge",
		ProjectType: "software",
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)

	_, a, err := service.Overview(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, a.TotalItems)
	assert.Nil(t, a.ComputedAt)
}
