package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerIssue(t *testing.T) {
	svc, _ := newTestService()
	app := fiber.New()
	app.Post("/jwt", NewHandler(svc).Issue)

	req := httptest.NewRequest(fiber.MethodPost, "/jwt", strings.NewReader(`{"email":"u@example.com"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body issueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 3600, body.ExpiresIn)

	claims, err := svc.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", claims.Email)
}

func TestHandlerIssueRejectsMissingEmail(t *testing.T) {
	svc, _ := newTestService()
	app := fiber.New()
	app.Post("/jwt", NewHandler(svc).Issue)

	req := httptest.NewRequest(fiber.MethodPost, "/jwt", strings.NewReader(`{"name":"x"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
