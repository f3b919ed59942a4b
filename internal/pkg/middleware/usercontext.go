package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/AdPulseHQ/AdPulse/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the caller identity for every request.
// The dashboard's session layer terminates in front of this service and
// forwards the authenticated user id in the X-User-ID header; requests
// without it stay anonymous and are rejected by RequireUser.
func UserContextMiddleware(c *fiber.Ctx) error {
	raw := c.Get("X-User-ID")
	if raw == "" {
		return c.Next()
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return c.Next()
	}
	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     uint(id),
		IsLoggedIn: true,
	})
	return c.Next()
}

// RequireUser rejects requests without an authenticated caller.
func RequireUser(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}
	return c.Next()
}
