package session

import "github.com/rampforge/rampforge/internal/client/models"

// State is the controller's tri-state authentication state.
type State int

const (
	// StateInitializing is the state between construction and the end of the
	// startup validation pass. The access guard renders its fallback here.
	StateInitializing State = iota

	// StateAuthenticated means a user is signed in. The user snapshot may
	// still be unverified for one verification round trip after a warm start.
	StateAuthenticated

	// StateUnauthenticated means there is no valid session. The only way back
	// to StateAuthenticated is an explicit Login.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the controller state handed to observers.
// Gen increases on every transition; observers use it to act exactly once
// per transition.
type Snapshot struct {
	State    State
	User     *models.User
	Verified bool
	Gen      uint64
}
