package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rampforge/rampforge/internal/client/api"
	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/common"
)

// Services lists the configured MCP integrations.
func (a *App) Services(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		services, err := a.client.ListServices(ctx)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		if len(services) == 0 {
			printlnFn("No services configured.")
			return nil
		}
		for _, s := range services {
			printlnFn(fmt.Sprintf("%s  %-12s %-20s %s [%s]", s.ID, s.ServiceType, s.Name, s.Endpoint, s.Status))
		}
		return nil
	})
}

// AddService interactively registers a new MCP service. The server validates
// the credentials against the live endpoint before persisting.
func (a *App) AddService(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		serviceType, err := getSimpleText(a.reader, "Enter service type (github, gitlab, jira, azure_devops, confluence)", os.Stdout)
		if err != nil {
			return err
		}
		name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
		if err != nil {
			return err
		}
		endpoint, err := getSimpleText(a.reader, "Enter endpoint URL", os.Stdout)
		if err != nil {
			return err
		}
		token, err := getPassword(os.Stdout)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(token)

		id, err := a.client.CreateService(ctx, api.ServiceConfig{
			ServiceType: serviceType,
			Name:        name,
			Endpoint:    endpoint,
			Credentials: map[string]string{"token": string(token)},
			Enabled:     true,
		})
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn("Service created:", id)
		return nil
	})
}

// RemoveService deletes a service by id.
func (a *App) RemoveService(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		id, err := getSimpleText(a.reader, "Enter service id", os.Stdout)
		if err != nil {
			return err
		}
		if err := a.client.DeleteService(ctx, id); err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn("Service removed.")
		return nil
	})
}

// TestService runs a connectivity probe against a service's live endpoint.
func (a *App) TestService(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		id, err := getSimpleText(a.reader, "Enter service id", os.Stdout)
		if err != nil {
			return err
		}
		health, err := a.client.TestService(ctx, id)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		if health.Error != "" {
			printlnFn(fmt.Sprintf("%s: %s (%s)", health.ServiceID, health.Status, health.Error))
		} else {
			printlnFn(fmt.Sprintf("%s: %s in %dms", health.ServiceID, health.Status, health.ResponseTimeMS))
		}
		return nil
	})
}
