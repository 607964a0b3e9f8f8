package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rampforge/rampforge/internal/server/mcp"
)

const azureAPIVersion = "7.0"

// AzureDevOps integrates with Azure DevOps Services. The service endpoint is
// the organization URL (https://dev.azure.com/<org>); the "token" credential
// is a personal access token sent as basic auth. A project key is the
// project name.
type AzureDevOps struct {
	http *http.Client
}

func (a *AzureDevOps) request(ctx context.Context, svc *mcp.Service, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(svc.Endpoint, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth("", svc.Credentials["token"])
	return req, nil
}

func (a *AzureDevOps) Probe(ctx context.Context, svc *mcp.Service) error {
	req, err := a.request(ctx, svc, http.MethodGet, "/_apis/projects?api-version="+azureAPIVersion, nil)
	if err != nil {
		return err
	}
	return doJSON(a.http, req, nil)
}

type azureProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (a *AzureDevOps) FetchProject(ctx context.Context, svc *mcp.Service, key string) (*ProjectInfo, error) {
	req, err := a.request(ctx, svc, http.MethodGet,
		"/_apis/projects/"+url.PathEscape(key)+"?api-version="+azureAPIVersion, nil)
	if err != nil {
		return nil, err
	}

	var p azureProject
	if err := doJSON(a.http, req, &p); err != nil {
		return nil, err
	}
	return &ProjectInfo{Key: p.Name, Name: p.Name, URL: p.URL, Type: "azure_devops_project"}, nil
}

type azureWiqlResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type azureWorkItemBatch struct {
	Value []struct {
		ID     int `json:"id"`
		Fields struct {
			Title      string `json:"System.Title"`
			Type       string `json:"System.WorkItemType"`
			State      string `json:"System.State"`
			AssignedTo *struct {
				DisplayName string `json:"displayName"`
			} `json:"System.AssignedTo"`
			StoryPoints *float64 `json:"Microsoft.VSTS.Scheduling.StoryPoints"`
		} `json:"fields"`
	} `json:"value"`
}

func (a *AzureDevOps) FetchWorkItems(ctx context.Context, svc *mcp.Service, key string) ([]WorkItem, error) {
	wiql, err := json.Marshal(map[string]string{
		"query": fmt.Sprintf("SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = '%s' ORDER BY [System.ChangedDate] DESC", key),
	})
	if err != nil {
		return nil, err
	}

	req, err := a.request(ctx, svc, http.MethodPost,
		"/"+url.PathEscape(key)+"/_apis/wit/wiql?$top=100&api-version="+azureAPIVersion, wiql)
	if err != nil {
		return nil, err
	}

	var ids azureWiqlResult
	if err := doJSON(a.http, req, &ids); err != nil {
		return nil, err
	}
	if len(ids.WorkItems) == 0 {
		return nil, nil
	}

	idList := make([]string, 0, len(ids.WorkItems))
	for _, wi := range ids.WorkItems {
		idList = append(idList, strconv.Itoa(wi.ID))
	}

	req, err = a.request(ctx, svc, http.MethodGet,
		"/_apis/wit/workitems?ids="+strings.Join(idList, ",")+"&api-version="+azureAPIVersion, nil)
	if err != nil {
		return nil, err
	}

	var batch azureWorkItemBatch
	if err := doJSON(a.http, req, &batch); err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(batch.Value))
	for _, wi := range batch.Value {
		item := WorkItem{
			ExternalID:  strconv.Itoa(wi.ID),
			Title:       wi.Fields.Title,
			Type:        wi.Fields.Type,
			Status:      wi.Fields.State,
			StoryPoints: wi.Fields.StoryPoints,
		}
		if wi.Fields.AssignedTo != nil {
			item.Assignee = wi.Fields.AssignedTo.DisplayName
		}
		items = append(items, item)
	}
	return items, nil
}

type azureTeamsResult struct {
	Value []struct {
		ID string `json:"id"`
	} `json:"value"`
}

type azureMembersResult struct {
	Value []struct {
		Identity struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
			UniqueName  string `json:"uniqueName"`
		} `json:"identity"`
	} `json:"value"`
}

func (a *AzureDevOps) FetchTeamMembers(ctx context.Context, svc *mcp.Service, key string) ([]TeamMember, error) {
	req, err := a.request(ctx, svc, http.MethodGet,
		"/_apis/projects/"+url.PathEscape(key)+"/teams?api-version="+azureAPIVersion, nil)
	if err != nil {
		return nil, err
	}

	var teams azureTeamsResult
	if err := doJSON(a.http, req, &teams); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var members []TeamMember
	for _, team := range teams.Value {
		req, err := a.request(ctx, svc, http.MethodGet,
			"/_apis/projects/"+url.PathEscape(key)+"/teams/"+url.PathEscape(team.ID)+"/members?api-version="+azureAPIVersion, nil)
		if err != nil {
			return nil, err
		}

		var tm azureMembersResult
		if err := doJSON(a.http, req, &tm); err != nil {
			return nil, err
		}
		for _, m := range tm.Value {
			if _, ok := seen[m.Identity.ID]; ok {
				continue
			}
			seen[m.Identity.ID] = struct{}{}
			members = append(members, TeamMember{
				ExternalID:  m.Identity.ID,
				DisplayName: m.Identity.DisplayName,
				Email:       m.Identity.UniqueName,
				Role:        "member",
				Active:      true,
			})
		}
	}
	return members, nil
}
