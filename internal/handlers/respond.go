package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/apperr"
	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/services"
)

// actorFromCtx adapts the gateway identity into the service-layer caller.
func actorFromCtx(c fiber.Ctx) services.Actor {
	identity := middleware.IdentityFromCtx(c)
	return services.Actor{
		UserID: identity.UserID,
		Role:   identity.Role,
		Name:   identity.Name,
		Email:  identity.Email,
	}
}

func ok(c fiber.Ctx, data fiber.Map) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func created(c fiber.Ctx, message string, data fiber.Map) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// fail translates a service error into the response envelope. Internal
// causes are logged here and never leak to the client.
func fail(c fiber.Ctx, err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(apperr.Status(err)).JSON(fiber.Map{
		"success": false,
		"message": apperr.Message(err),
	})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
