package connectors

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

// Jira integrates with Jira Cloud. The service endpoint is the site base URL
// (https://<site>.atlassian.net); credentials are "email" plus an API
// "token", sent as basic auth. A project key is the Jira project key.
type Jira struct {
	http *http.Client
}

func (j *Jira) request(ctx context.Context, svc *mcp.Service, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(svc.Endpoint, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(svc.Credentials["email"], svc.Credentials["token"])
	return req, nil
}

func (j *Jira) Probe(ctx context.Context, svc *mcp.Service) error {
	req, err := j.request(ctx, svc, "/rest/api/3/myself")
	if err != nil {
		return err
	}
	return doJSON(j.http, req, nil)
}

type jiraProject struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Self           string `json:"self"`
	ProjectTypeKey string `json:"projectTypeKey"`
}

func (j *Jira) FetchProject(ctx context.Context, svc *mcp.Service, key string) (*ProjectInfo, error) {
	req, err := j.request(ctx, svc, "/rest/api/3/project/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}

	var p jiraProject
	if err := doJSON(j.http, req, &p); err != nil {
		return nil, err
	}
	return &ProjectInfo{
		Key:  p.Key,
		Name: p.Name,
		URL:  strings.TrimRight(svc.Endpoint, "/") + "/browse/" + p.Key,
		Type: p.ProjectTypeKey,
	}, nil
}

type jiraSearchResult struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary   string `json:"summary"`
			IssueType struct {
				Name string `json:"name"`
			} `json:"issuetype"`
			Status struct {
				Name string `json:"name"`
			} `json:"status"`
			Assignee *struct {
				DisplayName string `json:"displayName"`
			} `json:"assignee"`
			StoryPoints *float64 `json:"customfield_10016"`
		} `json:"fields"`
	} `json:"issues"`
}

func (j *Jira) FetchWorkItems(ctx context.Context, svc *mcp.Service, key string) ([]WorkItem, error) {
	jql := url.QueryEscape("project = " + key + " ORDER BY created DESC")
	fields := "summary,issuetype,status,assignee,customfield_10016"
	req, err := j.request(ctx, svc, "/rest/api/3/search?maxResults=100&jql="+jql+"&fields="+fields)
	if err != nil {
		return nil, err
	}

	var res jiraSearchResult
	if err := doJSON(j.http, req, &res); err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(res.Issues))
	for _, is := range res.Issues {
		item := WorkItem{
			ExternalID:  is.Key,
			Title:       is.Fields.Summary,
			Type:        is.Fields.IssueType.Name,
			Status:      is.Fields.Status.Name,
			StoryPoints: is.Fields.StoryPoints,
		}
		if is.Fields.Assignee != nil {
			item.Assignee = is.Fields.Assignee.DisplayName
		}
		items = append(items, item)
	}
	return items, nil
}

type jiraUser struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
	AccountType  string `json:"accountType"`
}

func (j *Jira) FetchTeamMembers(ctx context.Context, svc *mcp.Service, key string) ([]TeamMember, error) {
	req, err := j.request(ctx, svc, "/rest/api/3/user/assignable/search?maxResults=100&project="+url.QueryEscape(key))
	if err != nil {
		return nil, err
	}

	var jusers []jiraUser
	if err := doJSON(j.http, req, &jusers); err != nil {
		return nil, err
	}

	members := make([]TeamMember, 0, len(jusers))
	for _, u := range jusers {
		if u.AccountType != "" && u.AccountType != "atlassian" {
			continue
		}
		members = append(members, TeamMember{
			ExternalID:  u.AccountID,
			DisplayName: u.DisplayName,
			Email:       u.EmailAddress,
			Role:        "member",
			Active:      u.Active,
		})
	}
	return members, nil
}
