package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *SQLRepository) Create(ctx context.Context, s *Session) error {
	query := r.q(`
		INSERT INTO user_sessions (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *SQLRepository) GetByTokenHash(ctx context.Context, hash string) (*Session, error) {
	query := r.q(`
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM user_sessions WHERE token_hash = ?
	`)
	s := &Session{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return s, nil
}

func (r *SQLRepository) DeleteByTokenHash(ctx context.Context, hash string) error {
	query := r.q(`DELETE FROM user_sessions WHERE token_hash = ?`)
	if _, err := r.db.ExecContext(ctx, query, hash); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := r.q(`DELETE FROM user_sessions WHERE expires_at < ?`)
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
