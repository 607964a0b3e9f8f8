// Package sessions issues, validates and revokes server-side sessions.
// A session token is an HS256 JWT whose SHA-256 hash is stored in the
// database; validation requires both a valid signature and a live row, so
// logout actually revokes the token before its expiry.
package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/auth"
	"github.com/rampforge/rampforge/internal/server/users"
)

type Service struct {
	repo     Repository
	cache    *Cache
	logger   logging.Logger
	secret   []byte
	validity time.Duration
}

func NewService(repo Repository, cache *Cache, secret []byte, validity time.Duration, logger logging.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		logger:   logger.With("module", "sessions"),
		secret:   secret,
		validity: validity,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue creates a session for the user and returns the token with its expiry.
func (s *Service) Issue(ctx context.Context, u *users.User) (string, time.Time, error) {
	token, err := auth.GenerateToken(u.ID, u.Email, string(u.Role), s.secret, s.validity)
	if err != nil {
		return "", time.Time{}, common.ErrorInternal
	}

	now := time.Now().UTC()
	expires := now.Add(s.validity)
	hash := hashToken(token)

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", time.Time{}, common.ErrorInternal
	}

	s.cache.Put(ctx, hash, s.validity)
	return token, expires, nil
}

// Validate checks the token signature, expiry and revocation state, and
// returns the embedded claims. Every failure maps to
// common.ErrorUnauthorized except infrastructure errors.
func (s *Service) Validate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	hash := hashToken(token)
	if s.cache.Has(ctx, hash) {
		return claims, nil
	}

	sess, err := s.repo.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	now := time.Now().UTC()
	if sess.ExpiresAt.Before(now) {
		_ = s.repo.DeleteByTokenHash(ctx, hash)
		return nil, common.ErrorUnauthorized
	}

	s.cache.Put(ctx, hash, sess.ExpiresAt.Sub(now))
	return claims, nil
}

// Revoke ends the session for the given token. Revoking an unknown or
// already-revoked token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	hash := hashToken(token)
	s.cache.Drop(ctx, hash)
	return s.repo.DeleteByTokenHash(ctx, hash)
}

// PurgeExpired removes sessions past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now().UTC())
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.logger.Error(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}
