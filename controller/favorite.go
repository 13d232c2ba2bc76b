package controller

import (
	"errors"

	"estate-service/access"
	"estate-service/database"
	"estate-service/event"
	"estate-service/middleware"
	"estate-service/model"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func favoriteExists(userID, propertyID uint) (bool, error) {
	var count int64
	err := database.Postgres.Model(&model.Favorite{}).
		Where(&model.Favorite{UserID: userID, PropertyID: propertyID}).
		Count(&count).Error
	return count > 0, err
}

func propertyExists(id uint) (bool, error) {
	var count int64
	err := database.Postgres.Model(&model.Property{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// insertFavorite maps a unique violation from a concurrent insert onto the
// same deny the gate gives.
func insertFavorite(favorite *model.Favorite) error {
	err := database.Postgres.Create(favorite).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return access.Decision{Reason: access.AlreadyFavorited}.Err()
	}
	return err
}

func FavoriteList(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	favorites := []model.Favorite{}
	if err := database.Postgres.
		Where(&model.Favorite{UserID: actor.ID}).
		Preload("Property").
		Preload("Property.Owner").
		Preload("Property.Images").
		Order("created_at desc, id desc").
		Find(&favorites).Error; err != nil {
		return internalError(c, err)
	}

	return successList(c, favorites, len(favorites), nil)
}

func FavoriteAdd(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return fail(c, err)
	}

	exists, err := propertyExists(propertyID)
	if err != nil {
		return internalError(c, err)
	}
	favorited, err := favoriteExists(actor.ID, propertyID)
	if err != nil {
		return internalError(c, err)
	}

	if err := authorize(actor, access.ForFavorite(exists, favorited), access.ActionCreate); err != nil {
		return fail(c, err)
	}

	favorite := &model.Favorite{UserID: actor.ID, PropertyID: propertyID}
	if err := insertFavorite(favorite); err != nil {
		return fail(c, err)
	}

	publish(event.QueueApi, event.FavoriteAdded, event.FavoritePayload{UserID: actor.ID, PropertyID: propertyID})

	return success(c, fiber.StatusCreated, favorite)
}

func FavoriteRemove(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return fail(c, err)
	}

	favorited, err := favoriteExists(actor.ID, propertyID)
	if err != nil {
		return internalError(c, err)
	}

	if err := authorize(actor, access.ForFavorite(true, favorited), access.ActionRemove); err != nil {
		return fail(c, err)
	}

	result := database.Postgres.
		Where(&model.Favorite{UserID: actor.ID, PropertyID: propertyID}).
		Delete(&model.Favorite{})
	if result.Error != nil {
		return internalError(c, result.Error)
	}
	// Lost a race with another removal.
	if result.RowsAffected == 0 {
		return fail(c, access.Decision{Reason: access.NotFound}.Err())
	}

	publish(event.QueueApi, event.FavoriteRemoved, event.FavoritePayload{UserID: actor.ID, PropertyID: propertyID})

	return success(c, fiber.StatusOK, nil)
}

func FavoriteCheck(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return fail(c, err)
	}

	favorited, err := favoriteExists(actor.ID, propertyID)
	if err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{"isFavorite": favorited})
}
