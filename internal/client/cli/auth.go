package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/rampforge/rampforge/internal/client/api"
	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates through the session
// controller. Wrong credentials and an unreachable server are reported
// differently; in neither case is any locally stored session touched.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.controller.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, api.ErrInvalidCredentials):
			log.Printf("Login unsuccessful: invalid email or password")
		case errors.Is(err, api.ErrUnavailable):
			log.Printf("Server unavailable, try again later")
		default:
			log.Printf("Login unsuccessful: %s", err.Error())
		}
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", user.Name))
	return nil
}

// Logout ends the session. The server call is best-effort; local credentials
// are always cleared.
func (a *App) Logout(ctx context.Context) error {
	a.controller.Logout(ctx)
	printlnFn("Logged out.")
	return nil
}

// WhoAmI fetches and prints the authenticated profile.
func (a *App) WhoAmI(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, _ *models.User) error {
		u, err := a.client.CurrentUser(ctx)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn(fmt.Sprintf("%s <%s> role=%s active=%v", u.Name, u.Email, u.Role, u.IsActive))
		if len(u.Skills) > 0 {
			printlnFn("skills:", u.Skills)
		}
		return nil
	})
}

// Profile interactively updates the mutable profile fields. Empty answers
// leave the corresponding field unchanged.
func (a *App) Profile(ctx context.Context) error {
	return a.guard.Run(ctx, func(ctx context.Context, u *models.User) error {
		name, err := getSimpleText(a.reader, fmt.Sprintf("Enter name [%s]", u.Name), os.Stdout)
		if err != nil {
			return err
		}

		var req api.ProfileUpdate
		if name != "" {
			req.Name = &name
		}

		updated, err := a.client.UpdateProfile(ctx, req)
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		printlnFn(fmt.Sprintf("Profile updated: %s <%s>", updated.Name, updated.Email))
		return nil
	})
}
