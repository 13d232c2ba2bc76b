package controller

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"estate-service/access"
	"estate-service/database"
	"estate-service/event"
	"estate-service/middleware"
	"estate-service/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPropertyImages = 10

var errNoImages = errors.New("no image uploaded")

type PropertyFilter struct {
	Type            string   `query:"type"`
	TransactionType string   `query:"transactionType"`
	City            string   `query:"city"`
	Status          string   `query:"status"`
	MinPrice        *float64 `query:"minPrice"`
	MaxPrice        *float64 `query:"maxPrice"`
	MinSurface      *float64 `query:"minSurface"`
	MaxSurface      *float64 `query:"maxSurface"`
	Bedrooms        *int     `query:"bedrooms"`
	Page            int      `query:"page"`
	Limit           int      `query:"limit"`
}

func (f *PropertyFilter) normalize() {
	if f.Status == "" {
		f.Status = model.PropertyAvailable
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
}

func (f PropertyFilter) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("status = ?", f.Status)
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.TransactionType != "" {
		db = db.Where("transaction_type = ?", f.TransactionType)
	}
	if f.City != "" {
		db = db.Where("LOWER(location_city) LIKE ?", "%"+strings.ToLower(f.City)+"%")
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinSurface != nil {
		db = db.Where("features_surface >= ?", *f.MinSurface)
	}
	if f.MaxSurface != nil {
		db = db.Where("features_surface <= ?", *f.MaxSurface)
	}
	if f.Bedrooms != nil {
		db = db.Where("features_bedrooms = ?", *f.Bedrooms)
	}
	return db
}

func PropertyList(c *fiber.Ctx) error {
	filter := PropertyFilter{}
	if err := c.QueryParser(&filter); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your filters")
	}
	filter.normalize()

	var total int64
	if err := filter.apply(database.Postgres.Model(&model.Property{})).Count(&total).Error; err != nil {
		return internalError(c, err)
	}

	properties := []model.Property{}
	err := filter.apply(database.Postgres).
		Preload("Owner").
		Preload("Images").
		Order("created_at desc, id desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&properties).Error
	if err != nil {
		return internalError(c, err)
	}

	return successList(c, properties, len(properties), fiber.Map{
		"total": total,
		"page":  filter.Page,
		"pages": int(math.Ceil(float64(total) / float64(filter.Limit))),
	})
}

func findProperty(c *fiber.Ctx) (*model.Property, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	property := new(model.Property)
	if err := database.Postgres.Preload("Owner").Preload("Images").First(property, id).Error; err != nil {
		return nil, err
	}
	return property, nil
}

func PropertyGet(c *fiber.Ctx) error {
	property, err := findProperty(c)
	if err != nil {
		return fail(c, err)
	}

	if err := database.Postgres.Model(property).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return internalError(c, err)
	}
	property.Views++

	return success(c, fiber.StatusOK, property)
}

func PropertyMine(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	properties := []model.Property{}
	if err := database.Postgres.
		Where(&model.Property{OwnerID: actor.ID}).
		Preload("Images").
		Order("created_at desc, id desc").
		Find(&properties).Error; err != nil {
		return internalError(c, err)
	}

	return successList(c, properties, len(properties), nil)
}

func PropertyCreate(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	property := new(model.Property)
	if err := c.BodyParser(property); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	property.Model = model.Model{}
	property.OwnerID = actor.ID
	property.Owner = model.User{}
	property.Images = nil
	property.Views = 0
	if property.Status == "" {
		property.Status = model.PropertyAvailable
	}
	if err := validate.Struct(property); err != nil {
		return fail(c, err)
	}

	if err := database.Postgres.Omit(clause.Associations).Create(property).Error; err != nil {
		return internalError(c, err)
	}
	property.Owner = actor
	property.Images = []model.PropertyImage{}

	publish(event.QueueApi, event.PropertyCreated, event.PropertyPayload{
		ID:      property.ID,
		OwnerID: property.OwnerID,
		ActorID: actor.ID,
	})

	return success(c, fiber.StatusCreated, property)
}

func PropertyUpdate(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	property, err := findProperty(c)
	if err != nil {
		return fail(c, err)
	}
	if err := authorize(actor, access.ForProperty(*property), access.ActionUpdate); err != nil {
		return fail(c, err)
	}

	// The body is merged over the stored record; identity fields stay put.
	stored := *property
	if err := c.BodyParser(property); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	property.Model = stored.Model
	property.OwnerID = stored.OwnerID
	property.Owner = stored.Owner
	property.Images = stored.Images
	property.Views = stored.Views

	if err := validate.Struct(property); err != nil {
		return fail(c, err)
	}

	if err := database.Postgres.Omit(clause.Associations).Save(property).Error; err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, property)
}

func PropertyDelete(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	property, err := findProperty(c)
	if err != nil {
		return fail(c, err)
	}
	if err := authorize(actor, access.ForProperty(*property), access.ActionDelete); err != nil {
		return fail(c, err)
	}

	err = database.Postgres.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&model.Favorite{PropertyID: property.ID}).Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where(&model.PropertyImage{PropertyID: property.ID}).Delete(&model.PropertyImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(property).Error
	})
	if err != nil {
		return internalError(c, err)
	}

	publish(event.QueueBackoffice, event.PropertyDeleted, event.PropertyPayload{
		ID:      property.ID,
		OwnerID: property.OwnerID,
		ActorID: actor.ID,
	})

	return success(c, fiber.StatusOK, nil)
}

func PropertyImagesUpload(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	property, err := findProperty(c)
	if err != nil {
		return fail(c, err)
	}
	if err := authorize(actor, access.ForProperty(*property), access.ActionAttachImage); err != nil {
		return fail(c, err)
	}

	images, err := readImages(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, err.Error())
	}
	for i := range images {
		images[i].PropertyID = property.ID
	}

	if err := database.Postgres.Create(&images).Error; err != nil {
		return internalError(c, err)
	}
	for i := range images {
		images[i].URL = model.ImageURL(images[i].ID)
	}
	property.Images = append(property.Images, images...)

	return success(c, fiber.StatusOK, property)
}

// readImages decodes the multipart "images" field, keeping only pictures.
func readImages(c *fiber.Ctx) ([]model.PropertyImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errNoImages
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, errNoImages
	}
	if len(files) > maxPropertyImages {
		return nil, fmt.Errorf("at most %d images per upload", maxPropertyImages)
	}

	images := make([]model.PropertyImage, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}

		mtype := mimetype.Detect(data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", header.Filename, mtype.String())
		}

		images = append(images, model.PropertyImage{
			ContentType: mtype.String(),
			Data:        base64.StdEncoding.EncodeToString(data),
		})
	}
	return images, nil
}

func PropertyImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	image := new(model.PropertyImage)
	if err := database.Postgres.First(image, id).Error; err != nil {
		return fail(c, err)
	}

	data, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		return internalError(c, err)
	}
	c.Set(fiber.HeaderContentType, image.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}

func publish(queue, action string, payload any) {
	if err := event.Publish(queue, action, payload); err != nil && !errors.Is(err, event.ErrNotConnected) {
		log.Printf("publish %s: %v", action, err)
	}
}
