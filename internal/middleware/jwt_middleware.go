package middleware

import (
	"strings"

	"courier/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PrincipalKey is the Fiber locals key holding the *services.Principal.
const PrincipalKey = "principal"

// AuthRequired is a Fiber middleware that resolves the bearer token into a
// principal.
func AuthRequired(authService *services.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		principal, err := authService.Authenticate(parts[1])
		if err != nil {
			log.Debug("authentication failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// CurrentPrincipal returns the principal stored by AuthRequired, or nil.
func CurrentPrincipal(c *fiber.Ctx) *services.Principal {
	p, _ := c.Locals(PrincipalKey).(*services.Principal)
	return p
}
