package cart

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/buildwise/buildwise_api/internal/clock"
)

// ErrInvalidEntry is returned when an entry lacks an apartment or a positive price.
var ErrInvalidEntry = errors.New("cart entry requires an apartment and a positive price")

// Service manages cart entries on behalf of their owners.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService builds a cart service.
func NewService(repo Repository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{repo: repo, clock: clk}
}

// AddInput describes an apartment being added to a cart.
type AddInput struct {
	ApartmentID string
	Floor       int
	Block       string
	ApartmentNo string
	Price       float64
}

// Add creates a cart entry owned by owner.
func (s *Service) Add(ctx context.Context, owner string, in AddInput) (Entry, error) {
	if strings.TrimSpace(in.ApartmentID) == "" || in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return Entry{}, ErrInvalidEntry
	}
	entry := Entry{
		ID:          uuid.NewString(),
		OwnerEmail:  owner,
		ApartmentID: in.ApartmentID,
		Floor:       in.Floor,
		Block:       in.Block,
		ApartmentNo: in.ApartmentNo,
		Price:       in.Price,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns the owner's cart.
func (s *Service) List(ctx context.Context, owner string) ([]Entry, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Remove deletes one entry of the owner. Removing a missing entry reports 0.
func (s *Service) Remove(ctx context.Context, owner, id string) (int64, error) {
	return s.repo.Delete(ctx, owner, id)
}
