package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the token issuance endpoint.
type Handler struct {
	tokens *TokenService
}

func NewHandler(tokens *TokenService) *Handler {
	return &Handler{tokens: tokens}
}

type issueResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Issue signs a token for the identity in the request body.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req Identity
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.tokens.Issue(req)
	if err != nil {
		if errors.Is(err, ErrInvalidIdentity) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "could not issue token")
	}
	return c.Status(http.StatusOK).JSON(issueResponse{
		Token:     token.Value,
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
	})
}
