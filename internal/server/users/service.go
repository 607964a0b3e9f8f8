package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rampforge/rampforge/internal/common"
)

const minPasswordLength = 8

// dummyHash is compared against when the account does not exist, so a login
// attempt takes the same time either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
	Role     Role
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	if p.Email == "" || p.Name == "" {
		return nil, common.ErrorValidation
	}
	if len(p.Password) < minPasswordLength {
		return nil, common.ErrorValidation
	}
	if p.Role == "" {
		p.Role = RoleDeveloper
	}
	if !p.Role.Valid() {
		return nil, common.ErrorValidation
	}

	_, err := s.repo.GetByEmail(ctx, p.Email)
	if err == nil {
		return nil, common.ErrorAlreadyExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:               uuid.NewString(),
		Email:            p.Email,
		Name:             p.Name,
		PasswordHash:     string(hash),
		Role:             p.Role,
		IsActive:         true,
		Skills:           []string{},
		LearningProgress: map[string]float64{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return user, nil
}

// Authenticate checks the credentials and returns the account. Unknown
// email, wrong password and a deactivated account all map to
// common.ErrorUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	// Best-effort; a failed timestamp must not fail the login.
	_ = s.repo.TouchLastActive(ctx, user.ID)

	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name             *string
	Role             *Role
	Skills           []string
	LearningProgress map[string]float64
}

func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, common.ErrorValidation
		}
		user.Name = *upd.Name
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, common.ErrorValidation
		}
		user.Role = *upd.Role
	}
	if upd.Skills != nil {
		user.Skills = upd.Skills
	}
	if upd.LearningProgress != nil {
		user.LearningProgress = upd.LearningProgress
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
