// Package middleware extracts the caller identity the gateway injects as
// trusted headers. Token validation itself happens upstream; this service
// never sees raw credentials.
package middleware

import (
	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/models"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

const identityLocal = "identity"

// Identity is the authenticated caller as asserted by the gateway.
type Identity struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

// RequireAuth rejects requests missing a gateway identity with 401.
func RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		role := c.Get(HeaderUserRole)
		if role == "" {
			role = models.RoleStudent
		}

		c.Locals(identityLocal, Identity{
			UserID: userID,
			Role:   role,
			Name:   c.Get(HeaderUserName),
			Email:  c.Get(HeaderUserEmail),
		})
		return c.Next()
	}
}

// RequireRoles gates a route to the given roles, 401 on mismatch.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		identity := IdentityFromCtx(c)
		for _, role := range roles {
			if identity.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized for this action",
		})
	}
}

// IdentityFromCtx returns the identity stored by RequireAuth. Zero value
// when the route skipped authentication.
func IdentityFromCtx(c fiber.Ctx) Identity {
	if identity, ok := c.Locals(identityLocal).(Identity); ok {
		return identity
	}
	return Identity{}
}
