package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerRendersKind(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusForbidden, "forbidden access")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("db password leaked in message")
	})

	cases := []struct {
		path    string
		status  int
		kind    string
		message string
	}{
		{"/denied", http.StatusForbidden, "forbidden", "forbidden access"},
		{"/boom", http.StatusInternalServerError, "internal", "internal server error"},
		{"/missing", http.StatusNotFound, "not_found", "Cannot GET /missing"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.kind, body["kind"], tc.path)
		assert.Equal(t, tc.message, body["message"], tc.path)
	}
}
