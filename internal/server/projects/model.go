package projects

import "time"

// Project is a project-management project mirrored from an MCP service.
type Project struct {
	ID          string
	ServiceID   string
	Key         string
	Name        string
	URL         string
	ProjectType string
	Status      string
	LastSynced  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkItem is a mirrored issue/work item.
type WorkItem struct {
	ID          string
	ProjectID   string
	ExternalID  string
	Title       string
	Type        string
	Status      string
	Assignee    string
	StoryPoints *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMember is a mirrored project member.
type TeamMember struct {
	ID          string
	ProjectID   string
	ExternalID  string
	DisplayName string
	Email       string
	Role        string
	Active      bool
}

// Analytics is the precomputed dashboard aggregate for a project.
type Analytics struct {
	ProjectID      string
	TotalItems     int
	CompletedItems int
	CompletionRate float64
	ItemsByStatus  map[string]int
	ItemsByType    map[string]int
	ActiveMembers  int
	ComputedAt     *time.Time
}

// Sync outcome statuses.
const (
	SyncCompleted = "completed"
	SyncPartial   = "partial"
	SyncFailed    = "failed"
)

// SyncResult reports the outcome of one sync run.
type SyncResult struct {
	ProjectID         string
	ServiceID         string
	Status            string
	WorkItemsSynced   int
	TeamMembersSynced int
	Errors            []string
}
