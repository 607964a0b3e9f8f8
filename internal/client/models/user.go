// Package models contains client-side domain types shared by the token
// store, the session controller and the CLI.
package models

import "time"

// Role is the platform role assigned to a user account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleTeamLead  Role = "team_lead"
	RoleObserver  Role = "observer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTeamLead, RoleObserver:
		return true
	}
	return false
}

// User is the profile snapshot cached alongside the bearer token. Field names
// follow the wire schema of the API.
type User struct {
	ID               string             `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Role             Role               `json:"role"`
	IsActive         bool               `json:"is_active"`
	Skills           []string           `json:"skills"`
	LearningProgress map[string]float64 `json:"learning_progress"`
	CreatedAt        time.Time          `json:"created_at"`
	LastActive       *time.Time         `json:"last_active,omitempty"`
}

// Clone returns a deep copy, so that snapshots handed out by the session
// controller cannot be mutated behind its back.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Skills != nil {
		cp.Skills = append([]string(nil), u.Skills...)
	}
	if u.LearningProgress != nil {
		cp.LearningProgress = make(map[string]float64, len(u.LearningProgress))
		for k, v := range u.LearningProgress {
			cp.LearningProgress[k] = v
		}
	}
	if u.LastActive != nil {
		la := *u.LastActive
		cp.LastActive = &la
	}
	return &cp
}
