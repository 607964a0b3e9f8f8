package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/dbx"
)

type SQLRepository struct {
	db    dbx.DBTX
	style dbx.Style
}

func NewSQLRepository(db dbx.DBTX, style dbx.Style) *SQLRepository {
	return &SQLRepository{db: db, style: style}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.style, query)
}

func (r *SQLRepository) Create(ctx context.Context, s *Service) error {
	creds, err := json.Marshal(s.Credentials)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	query := r.q(`
		INSERT INTO mcp_services
			(id, service_type, name, endpoint, credentials, enabled, status, last_connected, last_error, timeout_seconds, retry_attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.ExecContext(ctx, query,
		s.ID, string(s.Type), s.Name, s.Endpoint, creds, s.Enabled, string(s.Status),
		s.LastConnected, s.LastError, s.TimeoutSeconds, s.RetryAttempts, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

const selectService = `
	SELECT id, service_type, name, endpoint, credentials, enabled, status, last_connected, last_error, timeout_seconds, retry_attempts, created_at, updated_at
	FROM mcp_services`

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*Service, error) {
	row := r.db.QueryRowContext(ctx, r.q(selectService+` WHERE id = ?`), id)
	s, err := scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*Service, error) {
	rows, err := r.db.QueryContext(ctx, r.q(selectService+` ORDER BY created_at`))
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Update(ctx context.Context, s *Service) error {
	creds, err := json.Marshal(s.Credentials)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	query := r.q(`
		UPDATE mcp_services
		SET name = ?, endpoint = ?, credentials = ?, enabled = ?, status = ?, last_connected = ?, last_error = ?, timeout_seconds = ?, retry_attempts = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err = r.db.ExecContext(ctx, query,
		s.Name, s.Endpoint, creds, s.Enabled, string(s.Status), s.LastConnected, s.LastError,
		s.TimeoutSeconds, s.RetryAttempts, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM mcp_services WHERE id = ?`), id); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanService(row scannable) (*Service, error) {
	var (
		s           Service
		serviceType string
		status      string
		creds       []byte
	)
	err := row.Scan(&s.ID, &serviceType, &s.Name, &s.Endpoint, &creds, &s.Enabled, &status,
		&s.LastConnected, &s.LastError, &s.TimeoutSeconds, &s.RetryAttempts, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Type = ServiceType(serviceType)
	s.Status = Status(status)
	if err := json.Unmarshal(creds, &s.Credentials); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &s, nil
}
