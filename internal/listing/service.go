package listing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/buildwise/buildwise_api/internal/clock"
)

// ErrInvalidAnnouncement is returned for announcements without a title or body.
var ErrInvalidAnnouncement = errors.New("announcement requires a title and a body")

// Service serves the apartment listing and the announcement board.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService builds a listing service.
func NewService(repo Repository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{repo: repo, clock: clk}
}

func (s *Service) Apartments(ctx context.Context) ([]Apartment, error) {
	return s.repo.ListApartments(ctx)
}

func (s *Service) ApartmentCount(ctx context.Context) (int64, error) {
	return s.repo.CountApartments(ctx)
}

// Announce publishes a new announcement.
func (s *Service) Announce(ctx context.Context, title, body string) (Announcement, error) {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" || body == "" {
		return Announcement{}, ErrInvalidAnnouncement
	}
	a := Announcement{ID: uuid.NewString(), Title: title, Body: body, CreatedAt: s.clock.Now()}
	if err := s.repo.InsertAnnouncement(ctx, a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (s *Service) Announcements(ctx context.Context) ([]Announcement, error) {
	return s.repo.ListAnnouncements(ctx)
}
