package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/dbx"
)

// SQLRepository works against sqlite and postgres; the placeholder style is
// fixed at construction time.
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

func (r *SQLRepository) Create(ctx context.Context, user *User) (*User, error) {
	skills, progress, err := marshalProfile(user)
	if err != nil {
		return nil, err
	}

	query := r.q(`
		INSERT INTO users (id, email, name, password_hash, role, is_active, skills, learning_progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role), user.IsActive,
		skills, progress, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := r.q(selectUser + ` WHERE email = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := r.q(selectUser + ` WHERE id = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) Update(ctx context.Context, user *User) error {
	skills, progress, err := marshalProfile(user)
	if err != nil {
		return err
	}

	query := r.q(`
		UPDATE users
		SET name = ?, role = ?, is_active = ?, skills = ?, learning_progress = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err = r.db.ExecContext(ctx, query,
		user.Name, string(user.Role), user.IsActive, skills, progress, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *SQLRepository) TouchLastActive(ctx context.Context, id string) error {
	query := r.q(`UPDATE users SET last_active = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

const selectUser = `
	SELECT id, email, name, password_hash, role, is_active, skills, learning_progress, created_at, updated_at, last_active
	FROM users`

func (r *SQLRepository) scanOne(row *sql.Row) (*User, error) {
	var (
		user     User
		role     string
		skills   []byte
		progress []byte
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.IsActive,
		&skills, &progress, &user.CreatedAt, &user.UpdatedAt, &user.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	user.Role = Role(role)
	if err := json.Unmarshal(skills, &user.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal(progress, &user.LearningProgress); err != nil {
		return nil, fmt.Errorf("decode learning progress: %w", err)
	}
	return &user, nil
}

func marshalProfile(user *User) (skills, progress []byte, err error) {
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.LearningProgress == nil {
		user.LearningProgress = map[string]float64{}
	}
	skills, err = json.Marshal(user.Skills)
	if err != nil {
		return nil, nil, fmt.Errorf("encode skills: %w", err)
	}
	progress, err = json.Marshal(user.LearningProgress)
	if err != nil {
		return nil, nil, fmt.Errorf("encode learning progress: %w", err)
	}
	return skills, progress, nil
}
