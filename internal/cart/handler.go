package cart

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/middleware"
)

// Handler exposes cart endpoints. Every route expects an authenticated principal.
type Handler struct {
	service *Service
}

// NewHandler builds a cart HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addRequest struct {
	ApartmentID string  `json:"apartmentId"`
	Floor       int     `json:"floor_no"`
	Block       string  `json:"block_name"`
	ApartmentNo string  `json:"apartment_no"`
	Price       float64 `json:"price"`
}

type entryResponse struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email"`
	ApartmentID string    `json:"apartmentId"`
	Floor       int       `json:"floor_no"`
	Block       string    `json:"block_name"`
	ApartmentNo string    `json:"apartment_no"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Add puts an apartment into the caller's cart.
func (h *Handler) Add(c *fiber.Ctx) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	}
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.service.Add(c.UserContext(), p.Email, AddInput{
		ApartmentID: req.ApartmentID,
		Floor:       req.Floor,
		Block:       req.Block,
		ApartmentNo: req.ApartmentNo,
		Price:       req.Price,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidEntry) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"insertedId": entry.ID})
}

// List returns the caller's cart. The route checks that the email in the
// query string names the caller; the stored owner is the token subject.
func (h *Handler) List(c *fiber.Ctx) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	}
	entries, err := h.service.List(c.UserContext(), p.Email)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID: e.ID, Email: e.OwnerEmail, ApartmentID: e.ApartmentID, Floor: e.Floor,
			Block: e.Block, ApartmentNo: e.ApartmentNo, Price: e.Price, CreatedAt: e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Remove deletes one of the caller's cart entries.
func (h *Handler) Remove(c *fiber.Ctx) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	}
	n, err := h.service.Remove(c.UserContext(), p.Email, c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"deletedCount": n})
}
