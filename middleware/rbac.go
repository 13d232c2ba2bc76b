package middleware

import (
	"log"

	"estate-service/database"

	"github.com/gofiber/fiber/v2"
)

func RBAC() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := Claims(c)
		if err != nil {
			return unauthorized(c)
		}

		enforcer := database.Casbin()

		// Pick up role changes made by other instances
		if err := enforcer.LoadPolicy(); err != nil {
			log.Printf("rbac: load policy: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		// Casbin enforces policy
		accepted, err := enforcer.Enforce(claims.Id, c.Path(), c.Method())
		if err != nil {
			log.Printf("rbac: enforce: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		if !accepted {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		return c.Next()
	}
}
