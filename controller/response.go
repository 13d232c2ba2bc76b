package controller

import (
	"errors"
	"log"
	"strings"

	"estate-service/access"
	"estate-service/config"
	"estate-service/model"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

func successList(c *fiber.Ctx, data any, count int, extra fiber.Map) error {
	body := fiber.Map{
		"status":  "success",
		"message": nil,
		"count":   count,
		"data":    data,
	}
	for key, value := range extra {
		body[key] = value
	}
	return c.JSON(body)
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return failure(c, fiber.StatusInternalServerError, "Internal server error")
}

var denyStatus = map[access.Reason]int{
	access.NotOwner:         fiber.StatusForbidden,
	access.NotRecipient:     fiber.StatusForbidden,
	access.ResourceNotFound: fiber.StatusNotFound,
	access.NotFound:         fiber.StatusNotFound,
	access.AlreadyFavorited: fiber.StatusBadRequest,
}

var denyMessage = map[access.Reason]string{
	access.NotOwner:         "Not allowed to modify this property",
	access.NotRecipient:     "Not allowed",
	access.ResourceNotFound: "Property not found",
	access.NotFound:         "Favorite not found",
	access.AlreadyFavorited: "Already in favorites",
}

// fail maps domain errors onto the JSON envelope.
func fail(c *fiber.Ctx, err error) error {
	var denied *access.DenyError
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &denied):
		return failure(c, denyStatus[denied.Reason], denyMessage[denied.Reason])
	case errors.Is(err, errBadID):
		return failure(c, fiber.StatusBadRequest, "Invalid id")
	case errors.Is(err, model.ErrInvalidRecord):
		return failure(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &invalid):
		return failure(c, fiber.StatusBadRequest, validationMessage(invalid))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return failure(c, fiber.StatusNotFound, "Not found")
	}
	return internalError(c, err)
}

func validationMessage(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Namespace()+" failed "+e.Tag())
	}
	return strings.Join(fields, ", ")
}

// authorize runs the access gate. An invariant violation is a programming
// error: it panics in development and is logged otherwise.
func authorize(actor model.User, resource access.Resource, action access.Action) error {
	decision, err := access.CanMutate(access.ActorOf(actor), resource, action)
	if err != nil {
		if config.Development() {
			panic(err)
		}
		log.Printf("authorization: %v", err)
		return err
	}
	return decision.Err()
}

func paramID(c *fiber.Ctx, key string) (uint, error) {
	id, err := c.ParamsInt(key)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

var errBadID = errors.New("invalid id")
