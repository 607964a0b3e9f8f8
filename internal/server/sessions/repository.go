package sessions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByTokenHash(ctx context.Context, hash string) (*Session, error)
	DeleteByTokenHash(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
