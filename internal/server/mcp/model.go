package mcp

import "time"

// ServiceType identifies the kind of external system a service record
// points at.
type ServiceType string

const (
	TypeGitHub      ServiceType = "github"
	TypeGitLab      ServiceType = "gitlab"
	TypeJira        ServiceType = "jira"
	TypeAzureDevOps ServiceType = "azure_devops"
	TypeConfluence  ServiceType = "confluence"
)

func (t ServiceType) Valid() bool {
	switch t {
	case TypeGitHub, TypeGitLab, TypeJira, TypeAzureDevOps, TypeConfluence:
		return true
	}
	return false
}

// Status is the last known connection state of a service.
type Status string

const (
	StatusConnected Status = "connected"
	StatusError     Status = "error"
	StatusDisabled  Status = "disabled"
	StatusPending   Status = "pending"
)

// Service is a configured MCP integration.
type Service struct {
	ID             string
	Type           ServiceType
	Name           string
	Endpoint       string
	Credentials    map[string]string
	Enabled        bool
	Status         Status
	LastConnected  *time.Time
	LastError      string
	TimeoutSeconds int
	RetryAttempts  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
