package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes user management endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

type userResponse struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(u User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, PhotoURL: u.PhotoURL, Role: u.Role, CreatedAt: u.CreatedAt}
}

// Register handles user onboarding. Existing emails are acknowledged without
// inserting a second record.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, created, err := h.service.Register(c.UserContext(), Registration{Email: req.Email, Name: req.Name, PhotoURL: req.PhotoURL})
	if err != nil {
		if errors.Is(err, ErrEmailRequired) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !created {
		return c.Status(http.StatusOK).JSON(fiber.Map{"message": "user already exists", "insertedId": nil})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"insertedId": user.ID})
}

// List returns all users.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// PromoteToAdmin sets the admin role on the user in the path.
func (h *Handler) PromoteToAdmin(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.PromoteToAdmin(c.UserContext(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"modifiedCount": 1})
}

// Delete removes the user in the path.
func (h *Handler) Delete(c *fiber.Ctx) error {
	deleted, err := h.service.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	count := 0
	if deleted {
		count = 1
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"deletedCount": count})
}
