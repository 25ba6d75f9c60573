package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/logging"
)

// Audit emits one structured log line per request.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if p, ok := Principal(c); ok {
			attrs = append(attrs, slog.String("subject", p.Email))
		}

		l := logging.FromContext(c.UserContext(), logger)
		if err != nil && status >= fiber.StatusInternalServerError {
			l.Error("request completed", append(attrs, slog.Any("error", err))...)
			return err
		}
		l.Info("request completed", attrs...)
		return err
	}
}
