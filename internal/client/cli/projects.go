package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rampforge/rampforge/internal/client/api"
	"github.com/rampforge/rampforge/internal/client/models"
)

// Projects lists the synced project-management projects.
func (a *App) Projects(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		projects, err := a.client.ListProjects(ctx)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		if len(projects) == 0 {
			printlnFn("No projects synced yet. Use 'sync' to pull one.")
			return nil
		}
		for _, p := range projects {
			printlnFn(fmt.Sprintf("%s  %-10s %-24s [%s]", p.ID, p.Key, p.Name, p.Status))
		}
		return nil
	})
}

// Overview prints the dashboard aggregate for one project.
func (a *App) Overview(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		id, err := getSimpleText(a.reader, "Enter project id", os.Stdout)
		if err != nil {
			return err
		}
		ov, err := a.client.ProjectOverview(ctx, id)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn(fmt.Sprintf("%s (%s)", ov.Project.Name, ov.Project.Key))
		printlnFn(fmt.Sprintf("items: %d total, %d done (%.0f%%), members: %d",
			ov.TotalItems, ov.CompletedItems, ov.CompletionRate*100, ov.ActiveMembers))
		for status, n := range ov.ItemsByStatus {
			printlnFn(fmt.Sprintf("  %-12s %d", status, n))
		}
		return nil
	})
}

// Sync pulls a project from one of the configured MCP services.
func (a *App) Sync(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		serviceID, err := getSimpleText(a.reader, "Enter service id", os.Stdout)
		if err != nil {
			return err
		}
		projectKey, err := getSimpleText(a.reader, "Enter project key", os.Stdout)
		if err != nil {
			return err
		}

		status, err := a.client.SyncProject(ctx, api.SyncRequest{ServiceID: serviceID, ProjectKey: projectKey})
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn(fmt.Sprintf("sync %s: %d work items, %d members",
			status.SyncStatus, status.WorkItemsSynced, status.TeamMembersSynced))
		for _, e := range status.Errors {
			printlnFn("  warning:", e)
		}
		return nil
	})
}
