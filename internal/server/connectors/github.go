package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

// GitHub integrates with the GitHub REST API. The service endpoint is the
// API base (https://api.github.com, or a GitHub Enterprise /api/v3 base) and
// the "token" credential is a personal access token. A project key is an
// "owner/repo" pair; work items are the repository's issues.
type GitHub struct {
	http *http.Client
}

func (g *GitHub) request(ctx context.Context, svc *mcp.Service, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(svc.Endpoint, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+svc.Credentials["token"])
	return req, nil
}

func (g *GitHub) Probe(ctx context.Context, svc *mcp.Service) error {
	req, err := g.request(ctx, svc, "/user")
	if err != nil {
		return err
	}
	return doJSON(g.http, req, nil)
}

type githubRepo struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	HTMLURL  string `json:"html_url"`
}

func (g *GitHub) FetchProject(ctx context.Context, svc *mcp.Service, key string) (*ProjectInfo, error) {
	req, err := g.request(ctx, svc, "/repos/"+key)
	if err != nil {
		return nil, err
	}

	var repo githubRepo
	if err := doJSON(g.http, req, &repo); err != nil {
		return nil, err
	}
	return &ProjectInfo{Key: repo.FullName, Name: repo.Name, URL: repo.HTMLURL, Type: "repository"}, nil
}

type githubIssue struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	State    string `json:"state"`
	Assignee *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	PullRequest *struct{} `json:"pull_request"`
}

func (g *GitHub) FetchWorkItems(ctx context.Context, svc *mcp.Service, key string) ([]WorkItem, error) {
	req, err := g.request(ctx, svc, "/repos/"+key+"/issues?state=all&per_page=100")
	if err != nil {
		return nil, err
	}

	var issues []githubIssue
	if err := doJSON(g.http, req, &issues); err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(issues))
	for _, is := range issues {
		// The issues endpoint also returns pull requests.
		if is.PullRequest != nil {
			continue
		}
		item := WorkItem{
			ExternalID: fmt.Sprintf("%d", is.Number),
			Title:      is.Title,
			Type:       "issue",
			Status:     is.State,
		}
		if is.Assignee != nil {
			item.Assignee = is.Assignee.Login
		}
		items = append(items, item)
	}
	return items, nil
}

type githubContributor struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

func (g *GitHub) FetchTeamMembers(ctx context.Context, svc *mcp.Service, key string) ([]TeamMember, error) {
	req, err := g.request(ctx, svc, "/repos/"+key+"/contributors?per_page=100")
	if err != nil {
		return nil, err
	}

	var contributors []githubContributor
	if err := doJSON(g.http, req, &contributors); err != nil {
		return nil, err
	}

	members := make([]TeamMember, 0, len(contributors))
	for _, c := range contributors {
		if c.Type != "User" {
			continue
		}
		members = append(members, TeamMember{
			ExternalID:  c.Login,
			DisplayName: c.Login,
			Role:        "contributor",
			Active:      true,
		})
	}
	return members, nil
}
