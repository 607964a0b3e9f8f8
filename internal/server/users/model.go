package users

import "time"

// Role is the authorization role of an account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleTeamLead  Role = "team_lead"
	RoleObserver  Role = "observer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTeamLead, RoleObserver:
		return true
	}
	return false
}

type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	Role             Role
	IsActive         bool
	Skills           []string
	LearningProgress map[string]float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastActive       *time.Time
}
