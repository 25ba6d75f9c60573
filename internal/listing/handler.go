package listing

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes listing and announcement endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type apartmentResponse struct {
	ID          string  `json:"_id"`
	ImageURL    string  `json:"apartment_image"`
	Floor       int     `json:"floor_no"`
	Block       string  `json:"block_name"`
	ApartmentNo string  `json:"apartment_no"`
	Rent        float64 `json:"rent"`
}

type announcementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type announcementResponse struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) Apartments(c *fiber.Ctx) error {
	apartments, err := h.service.Apartments(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]apartmentResponse, 0, len(apartments))
	for _, a := range apartments {
		out = append(out, apartmentResponse{ID: a.ID, ImageURL: a.ImageURL, Floor: a.Floor, Block: a.Block, ApartmentNo: a.ApartmentNo, Rent: a.Rent})
	}
	return c.JSON(out)
}

func (h *Handler) ApartmentCount(c *fiber.Ctx) error {
	n, err := h.service.ApartmentCount(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"count": n})
}

// Announce is admin only; the route wires the guard.
func (h *Handler) Announce(c *fiber.Ctx) error {
	var req announcementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	a, err := h.service.Announce(c.UserContext(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, ErrInvalidAnnouncement) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"insertedId": a.ID})
}

func (h *Handler) Announcements(c *fiber.Ctx) error {
	list, err := h.service.Announcements(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]announcementResponse, 0, len(list))
	for _, a := range list {
		out = append(out, announcementResponse{ID: a.ID, Title: a.Title, Description: a.Body, CreatedAt: a.CreatedAt})
	}
	return c.JSON(out)
}
