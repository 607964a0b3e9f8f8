package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

func githubService(endpoint string) *mcp.Service {
	return &mcp.Service{
		Type:        mcp.TypeGitHub,
		Endpoint:    endpoint,
		Credentials: map[string]string{"token": "gh-token"},
	}
}

func jiraService(endpoint string) *mcp.Service {
	return &mcp.Service{
		Type:        mcp.TypeJira,
		Endpoint:    endpoint,
		Credentials: map[string]string{"email": "a@b.com", "token": "jira-token"},
	}
}

func TestRegistry_ForType(t *testing.T) {
	r := NewRegistry(nil)

	for _, typ := range []mcp.ServiceType{mcp.TypeGitHub, mcp.TypeJira, mcp.TypeAzureDevOps} {
		c, err := r.ForType(typ)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}

	_, err := r.ForType(mcp.TypeGitLab)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGitHub_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer srv.Close()

	r := NewRegistry(srv.Client())

	err := r.Probe(context.Background(), githubService(srv.URL))
	require.NoError(t, err)

	bad := githubService(srv.URL)
	bad.Credentials["token"] = "wrong"
	err = r.Probe(context.Background(), bad)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestGitHub_FetchWorkItems_SkipsPullRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widget/issues", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"number": 1, "title": "Bug A", "state": "open", "assignee": {"login": "alice"}},
			{"number": 2, "title": "PR", "state": "open", "pull_request": {}},
			{"number": 3, "title": "Bug B", "state": "closed"}
		]`))
	}))
	defer srv.Close()

	g := &GitHub{http: srv.Client()}
	items, err := g.FetchWorkItems(context.Background(), githubService(srv.URL), "acme/widget")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ExternalID)
	assert.Equal(t, "alice", items[0].Assignee)
	assert.Equal(t, "closed", items[1].Status)
}

func TestJira_FetchWorkItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/search", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "a@b.com", user)
		require.Equal(t, "jira-token", pass)

		_, _ = w.Write([]byte(`{"issues": [
			{"key": "RF-1", "fields": {"summary": "Set up CI", "issuetype": {"name": "Task"},
			 "status": {"name": "Done"}, "assignee": {"displayName": "Alice"}, "customfield_10016": 3}},
			{"key": "RF-2", "fields": {"summary": "Write docs", "issuetype": {"name": "Story"},
			 "status": {"name": "To Do"}}}
		]}`))
	}))
	defer srv.Close()

	j := &Jira{http: srv.Client()}
	items, err := j.FetchWorkItems(context.Background(), jiraService(srv.URL), "RF")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "RF-1", items[0].ExternalID)
	assert.Equal(t, "Done", items[0].Status)
	require.NotNil(t, items[0].StoryPoints)
	assert.Equal(t, 3.0, *items[0].StoryPoints)
	assert.Empty(t, items[1].Assignee)
	assert.Nil(t, items[1].StoryPoints)
}

func TestJira_FetchProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/project/RF", r.URL.Path)
		_, _ = w.Write([]byte(`{"key": "RF", "name": "RampForge", "projectTypeKey": "software"}`))
	}))
	defer srv.Close()

	j := &Jira{http: srv.Client()}
	p, err := j.FetchProject(context.Background(), jiraService(srv.URL), "RF")
	require.NoError(t, err)

	assert.Equal(t, "RF", p.Key)
	assert.Equal(t, "RampForge", p.Name)
	assert.Equal(t, srv.URL+"/browse/RF", p.URL)
	assert.Equal(t, "software", p.Type)
}

func TestAzureDevOps_FetchWorkItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/Widget/_apis/wit/wiql":
			_, _ = w.Write([]byte(`{"workItems": [{"id": 10}, {"id": 11}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/_apis/wit/workitems":
			require.Equal(t, "10,11", r.URL.Query().Get("ids"))
			_, _ = w.Write([]byte(`{"value": [
				{"id": 10, "fields": {"System.Title": "Task A", "System.WorkItemType": "Task",
				 "System.State": "Active", "System.AssignedTo": {"displayName": "Bob"}}},
				{"id": 11, "fields": {"System.Title": "Bug B", "System.WorkItemType": "Bug",
				 "System.State": "Closed", "Microsoft.VSTS.Scheduling.StoryPoints": 5}}
			]}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	a := &AzureDevOps{http: srv.Client()}
	svc := &mcp.Service{
		Type:        mcp.TypeAzureDevOps,
		Endpoint:    srv.URL,
		Credentials: map[string]string{"token": "pat"},
	}

	items, err := a.FetchWorkItems(context.Background(), svc, "Widget")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "10", items[0].ExternalID)
	assert.Equal(t, "Bob", items[0].Assignee)
	require.NotNil(t, items[1].StoryPoints)
	assert.Equal(t, 5.0, *items[1].StoryPoints)
}
