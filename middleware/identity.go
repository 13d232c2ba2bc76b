package middleware

import (
	"errors"

	"estate-service/database"
	"estate-service/model"
	"estate-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

var errNoToken = errors.New("no token in context")

// Claims returns the metadata of the token validated by JWT().
func Claims(c *fiber.Ctx) (*utils.TokenMetadata, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errNoToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, utils.ErrInvalidClaims
	}
	return utils.MetadataFromClaims(claims)
}

// Identity loads the authenticated user so handlers get it as an explicit actor.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := Claims(c)
		if err != nil {
			return unauthorized(c)
		}
		id, err := claims.UserID()
		if err != nil {
			return unauthorized(c)
		}

		user := model.User{}
		if err := database.Postgres.First(&user, id).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "User not found",
				"data":    nil,
			})
		}

		c.Locals(actorKey, user)
		return c.Next()
	}
}

// Actor returns the user stored by Identity().
func Actor(c *fiber.Ctx) model.User {
	user, _ := c.Locals(actorKey).(model.User)
	return user
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  "error",
		"message": "Invalid or expired JWT",
		"data":    nil,
	})
}
