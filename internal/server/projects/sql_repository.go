package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/dbx"
)

// SQLRepository holds a *sql.DB rather than dbx.DBTX because the Replace*
// methods run in their own transaction.
type SQLRepository struct {
	db    *sql.DB
	style dbx.Style
}

func NewSQLRepository(db *sql.DB, style dbx.Style) *SQLRepository {
	return &SQLRepository{db: db, style: style}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.style, query)
}

const selectProject = `
	SELECT id, service_id, project_key, name, url, project_type, status, last_synced, created_at, updated_at
	FROM pm_projects`

// UpsertProject inserts p or, when a row for the same (service_id,
// project_key) exists, updates it in place. The stored row is returned with
// its identity fields filled in.
func (r *SQLRepository) UpsertProject(ctx context.Context, p *Project) (*Project, error) {
	row := r.db.QueryRowContext(ctx,
		r.q(selectProject+` WHERE service_id = ? AND project_key = ?`), p.ServiceID, p.Key)
	existing, err := scanProject(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		query := r.q(`
			INSERT INTO pm_projects
				(id, service_id, project_key, name, url, project_type, status, last_synced, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err = r.db.ExecContext(ctx, query,
			p.ID, p.ServiceID, p.Key, p.Name, p.URL, p.ProjectType, p.Status, p.LastSynced, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error performing sql request: %v", err)
		}
		return p, nil
	case err != nil:
		return nil, err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	query := r.q(`
		UPDATE pm_projects
		SET name = ?, url = ?, project_type = ?, status = ?, last_synced = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err = r.db.ExecContext(ctx, query,
		p.Name, p.URL, p.ProjectType, p.Status, p.LastSynced, p.UpdatedAt, p.ID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return p, nil
}

func (r *SQLRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, r.q(selectProject+` WHERE id = ?`), id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, r.q(selectProject+` ORDER BY created_at`))
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceWorkItems swaps the full work item set for a project in one
// transaction, so readers never observe a half-synced list.
func (r *SQLRepository) ReplaceWorkItems(ctx context.Context, projectID string, items []WorkItem) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM work_items WHERE project_id = ?`), projectID); err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		query := r.q(`
			INSERT INTO work_items
				(id, project_id, external_id, title, item_type, status, assignee, story_points, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		for _, it := range items {
			id := it.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, query,
				id, projectID, it.ExternalID, it.Title, it.Type, it.Status, it.Assignee,
				it.StoryPoints, it.CreatedAt, it.UpdatedAt)
			if err != nil {
				return fmt.Errorf("error performing sql request: %v", err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) ListWorkItems(ctx context.Context, projectID string) ([]WorkItem, error) {
	query := r.q(`
		SELECT id, project_id, external_id, title, item_type, status, assignee, story_points, created_at, updated_at
		FROM work_items WHERE project_id = ? ORDER BY external_id
	`)
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []WorkItem
	for rows.Next() {
		var it WorkItem
		err := rows.Scan(&it.ID, &it.ProjectID, &it.ExternalID, &it.Title, &it.Type, &it.Status,
			&it.Assignee, &it.StoryPoints, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceTeamMembers swaps the full member set for a project in one
// transaction.
func (r *SQLRepository) ReplaceTeamMembers(ctx context.Context, projectID string, members []TeamMember) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM team_members WHERE project_id = ?`), projectID); err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		query := r.q(`
			INSERT INTO team_members (id, project_id, external_id, display_name, email, role, active)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		for _, m := range members {
			id := m.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, query,
				id, projectID, m.ExternalID, m.DisplayName, m.Email, m.Role, m.Active)
			if err != nil {
				return fmt.Errorf("error performing sql request: %v", err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) ListTeamMembers(ctx context.Context, projectID string) ([]TeamMember, error) {
	query := r.q(`
		SELECT id, project_id, external_id, display_name, email, role, active
		FROM team_members WHERE project_id = ? ORDER BY display_name
	`)
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []TeamMember
	for rows.Next() {
		var m TeamMember
		err := rows.Scan(&m.ID, &m.ProjectID, &m.ExternalID, &m.DisplayName, &m.Email, &m.Role, &m.Active)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLRepository) SaveAnalytics(ctx context.Context, a *Analytics) error {
	byStatus, err := json.Marshal(a.ItemsByStatus)
	if err != nil {
		return fmt.Errorf("encode items_by_status: %w", err)
	}
	byType, err := json.Marshal(a.ItemsByType)
	if err != nil {
		return fmt.Errorf("encode items_by_type: %w", err)
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM project_analytics WHERE project_id = ?`), a.ProjectID); err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}
		query := r.q(`
			INSERT INTO project_analytics
				(project_id, total_items, completed_items, completion_rate, items_by_status, items_by_type, active_members, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			a.ProjectID, a.TotalItems, a.CompletedItems, a.CompletionRate, byStatus, byType, a.ActiveMembers, a.ComputedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}
		return nil
	})
}

func (r *SQLRepository) GetAnalytics(ctx context.Context, projectID string) (*Analytics, error) {
	query := r.q(`
		SELECT project_id, total_items, completed_items, completion_rate, items_by_status, items_by_type, active_members, computed_at
		FROM project_analytics WHERE project_id = ?
	`)
	row := r.db.QueryRowContext(ctx, query, projectID)

	var (
		a        Analytics
		byStatus []byte
		byType   []byte
	)
	err := row.Scan(&a.ProjectID, &a.TotalItems, &a.CompletedItems, &a.CompletionRate,
		&byStatus, &byType, &a.ActiveMembers, &a.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(byStatus, &a.ItemsByStatus); err != nil {
		return nil, fmt.Errorf("decode items_by_status: %w", err)
	}
	if err := json.Unmarshal(byType, &a.ItemsByType); err != nil {
		return nil, fmt.Errorf("decode items_by_type: %w", err)
	}
	return &a, nil
}

func scanProject(row interface{ Scan(dest ...any) error }) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.ServiceID, &p.Key, &p.Name, &p.URL, &p.ProjectType,
		&p.Status, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
