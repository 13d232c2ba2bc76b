package controller

import (
	"estate-service/database"
	"estate-service/model"

	"github.com/gofiber/fiber/v2"
)

type AdminRoleInput struct {
	Role model.Role `json:"role" validate:"required,oneof=user admin"`
}

func AdminUsers(c *fiber.Ctx) error {
	users := []model.User{}
	if err := database.Postgres.Order("id asc").Find(&users).Error; err != nil {
		return internalError(c, err)
	}

	return successList(c, users, len(users), nil)
}

func AdminUserRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	input := new(AdminRoleInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	if err := validate.Struct(input); err != nil {
		return fail(c, err)
	}

	user := new(model.User)
	if err := database.Postgres.First(user, id).Error; err != nil {
		return fail(c, err)
	}

	if err := database.Postgres.Model(user).Update("role", input.Role).Error; err != nil {
		return internalError(c, err)
	}
	user.Role = input.Role

	if err := database.AssignRole(user.ID, string(user.Role)); err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, user)
}
