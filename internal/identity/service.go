package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/buildwise/buildwise_api/internal/clock"
)

// ErrEmailRequired is returned when registering without an email.
var ErrEmailRequired = errors.New("email is required")

// Service manages identity records.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService creates a new identity service.
func NewService(repo Repository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{repo: repo, clock: clk}
}

// Register stores a new ordinary user. Registering an email that already
// exists returns the stored record with created=false.
func (s *Service) Register(ctx context.Context, reg Registration) (User, bool, error) {
	email := normalizeEmail(reg.Email)
	if email == "" {
		return User{}, false, ErrEmailRequired
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}

	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(reg.Name),
		PhotoURL:  strings.TrimSpace(reg.PhotoURL),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// lost a race with a concurrent registration
			existing, findErr := s.repo.FindByEmail(ctx, email)
			if findErr != nil {
				return User{}, false, findErr
			}
			return existing, false, nil
		}
		return User{}, false, err
	}
	return user, true, nil
}

// FindByEmail returns the identity record for email.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// PromoteToAdmin grants the admin role to the user with id.
func (s *Service) PromoteToAdmin(ctx context.Context, id string) error {
	return s.repo.SetRole(ctx, id, RoleAdmin)
}

// Delete removes a user; deleting an unknown id reports false without error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
