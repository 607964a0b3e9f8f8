// Package mcp manages the configured MCP service integrations: the external
// systems (github, jira, azure devops, ...) that project data is pulled from.
package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
)

const (
	defaultTimeoutSeconds = 30
	defaultRetryAttempts  = 3
)

// Prober checks whether a service's endpoint accepts its credentials. The
// connectors package provides the implementation.
type Prober interface {
	Probe(ctx context.Context, svc *Service) error
}

// Health is the outcome of a connectivity probe.
type Health struct {
	ServiceID    string
	Status       Status
	ResponseTime time.Duration
	Error        string
}

type Manager struct {
	repo    Repository
	prober  Prober
	timeout time.Duration
	logger  logging.Logger
}

func NewManager(repo Repository, prober Prober, timeout time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		repo:    repo,
		prober:  prober,
		timeout: timeout,
		logger:  logger.With("module", "mcp"),
	}
}

type CreateParams struct {
	Type           ServiceType
	Name           string
	Endpoint       string
	Credentials    map[string]string
	Enabled        bool
	TimeoutSeconds int
	RetryAttempts  int
}

// Create validates the parameters, probes the live endpoint and persists the
// record. A failed probe does not reject the record; it is stored with
// StatusError so the user can fix the credentials later.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*Service, error) {
	if !p.Type.Valid() || p.Name == "" || p.Endpoint == "" {
		return nil, common.ErrorValidation
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultTimeoutSeconds
	}
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = defaultRetryAttempts
	}

	now := time.Now().UTC()
	svc := &Service{
		ID:             uuid.NewString(),
		Type:           p.Type,
		Name:           p.Name,
		Endpoint:       p.Endpoint,
		Credentials:    p.Credentials,
		Enabled:        p.Enabled,
		Status:         StatusPending,
		TimeoutSeconds: p.TimeoutSeconds,
		RetryAttempts:  p.RetryAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch {
	case !p.Enabled:
		svc.Status = StatusDisabled
	default:
		m.probeInto(ctx, svc)
	}

	if err := m.repo.Create(ctx, svc); err != nil {
		return nil, common.ErrorInternal
	}
	return svc, nil
}

// Update replaces the mutable fields of an existing record and re-probes the
// endpoint, following the same rules as Create.
func (m *Manager) Update(ctx context.Context, id string, p CreateParams) (*Service, error) {
	if !p.Type.Valid() || p.Name == "" || p.Endpoint == "" {
		return nil, common.ErrorValidation
	}

	svc, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Type != svc.Type {
		return nil, common.ErrorValidation
	}

	svc.Name = p.Name
	svc.Endpoint = p.Endpoint
	svc.Credentials = p.Credentials
	svc.Enabled = p.Enabled
	if p.TimeoutSeconds > 0 {
		svc.TimeoutSeconds = p.TimeoutSeconds
	}
	if p.RetryAttempts > 0 {
		svc.RetryAttempts = p.RetryAttempts
	}
	svc.UpdatedAt = time.Now().UTC()

	switch {
	case !p.Enabled:
		svc.Status = StatusDisabled
	default:
		m.probeInto(ctx, svc)
	}

	if err := m.repo.Update(ctx, svc); err != nil {
		return nil, common.ErrorInternal
	}
	return svc, nil
}

func (m *Manager) List(ctx context.Context) ([]*Service, error) {
	return m.repo.List(ctx)
}

func (m *Manager) Get(ctx context.Context, id string) (*Service, error) {
	return m.repo.GetByID(ctx, id)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return m.repo.Delete(ctx, id)
}

// Test probes the service's live endpoint and records the outcome on the
// service row.
func (m *Manager) Test(ctx context.Context, id string) (*Health, error) {
	svc, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.Enabled {
		return &Health{ServiceID: svc.ID, Status: StatusDisabled}, nil
	}

	started := time.Now()
	m.probeInto(ctx, svc)
	elapsed := time.Since(started)

	svc.UpdatedAt = time.Now().UTC()
	if err := m.repo.Update(ctx, svc); err != nil {
		m.logger.Error(ctx, "persist probe outcome failed", "service_id", svc.ID, "error", err)
	}

	return &Health{
		ServiceID:    svc.ID,
		Status:       svc.Status,
		ResponseTime: elapsed,
		Error:        svc.LastError,
	}, nil
}

// probeInto runs one probe and writes the outcome onto svc.
func (m *Manager) probeInto(ctx context.Context, svc *Service) {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.prober.Probe(pctx, svc); err != nil {
		svc.Status = StatusError
		svc.LastError = err.Error()
		m.logger.Warn(ctx, "service probe failed", "service_id", svc.ID, "type", svc.Type, "error", err)
		return
	}

	now := time.Now().UTC()
	svc.Status = StatusConnected
	svc.LastConnected = &now
	svc.LastError = ""
}
