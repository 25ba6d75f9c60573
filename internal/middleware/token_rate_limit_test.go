package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueStatuses(t *testing.T, app *fiber.App, email string, n int) []int {
	t.Helper()
	statuses := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/jwt", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	return statuses
}

func TestTokenRateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/jwt", TokenRateLimit(cache, 2), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, []int{200, 200, 429}, issueStatuses(t, app, "u@example.com", 3))
	assert.Equal(t, []int{200}, issueStatuses(t, app, "other@example.com", 1))
}

func TestTokenRateLimitInMemory(t *testing.T) {
	app := fiber.New()
	app.Post("/jwt", TokenRateLimit(nil, 2), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, []int{200, 200, 429}, issueStatuses(t, app, "u@example.com", 3))
}
