package controller

import (
	"errors"

	"estate-service/access"
	"estate-service/conversation"
	"estate-service/database"
	"estate-service/event"
	"estate-service/middleware"
	"estate-service/model"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MessageSendInput struct {
	ReceiverID uint   `json:"receiverId"`
	Text       string `json:"text"`
	PropertyID *uint  `json:"propertyId"`
}

// publicUser limits preloaded participants to what other users may see.
func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar")
}

func MessageSend(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	input := new(MessageSendInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	if input.ReceiverID == 0 || input.Text == "" {
		return failure(c, fiber.StatusBadRequest, "Receiver and text are required")
	}

	message, err := model.NewMessage(actor.ID, input.ReceiverID, input.Text, input.PropertyID)
	if err != nil {
		return fail(c, err)
	}

	if err := database.Postgres.First(new(model.User), message.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(c, fiber.StatusNotFound, "Receiver not found")
		}
		return internalError(c, err)
	}
	if message.PropertyID != nil {
		if err := database.Postgres.First(new(model.Property), *message.PropertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return failure(c, fiber.StatusNotFound, "Property not found")
			}
			return internalError(c, err)
		}
	}

	if err := database.Postgres.Create(message).Error; err != nil {
		return internalError(c, err)
	}

	if err := database.Postgres.
		Preload("Sender", publicUser).
		Preload("Receiver", publicUser).
		Preload("Property").
		First(message, message.ID).Error; err != nil {
		return internalError(c, err)
	}

	publish(event.QueueApi, event.MessageSent, event.NewMessagePayload(*message))

	return success(c, fiber.StatusCreated, message)
}

// LoadConversations fetches the viewer's messages newest first and groups
// them by counterparty.
func LoadConversations(viewer uint) ([]conversation.Summary, error) {
	messages := []model.Message{}
	err := database.Postgres.
		Where("sender_id = ? OR receiver_id = ?", viewer, viewer).
		Preload("Sender", publicUser).
		Preload("Receiver", publicUser).
		Order("created_at desc, id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return conversation.Aggregate(messages, viewer)
}

func MessageConversations(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	conversations, err := LoadConversations(actor.ID)
	if err != nil {
		return fail(c, err)
	}

	return successList(c, conversations, len(conversations), nil)
}

// MessageThread returns the exchange with one user, oldest first, and marks
// what that user sent as read.
func MessageThread(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	other, err := paramID(c, "userId")
	if err != nil {
		return fail(c, err)
	}

	messages := []model.Message{}
	err = database.Postgres.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", actor.ID, other, other, actor.ID).
		Preload("Sender", publicUser).
		Preload("Receiver", publicUser).
		Preload("Property").
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return internalError(c, err)
	}

	if err := database.Postgres.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", other, actor.ID, false).
		Update("read", true).Error; err != nil {
		return internalError(c, err)
	}

	return successList(c, messages, len(messages), nil)
}

// MarkMessageRead flags one message as read for its receiver.
func MarkMessageRead(actor model.User, id uint) (*model.Message, error) {
	message := new(model.Message)
	if err := database.Postgres.First(message, id).Error; err != nil {
		return nil, err
	}

	if err := authorize(actor, access.ForMessage(*message), access.ActionMarkRead); err != nil {
		return nil, err
	}

	if !message.Read {
		if err := database.Postgres.Model(message).Update("read", true).Error; err != nil {
			return nil, err
		}
		message.Read = true
		publish(event.QueueApi, event.MessageRead, event.NewMessagePayload(*message))
	}
	return message, nil
}

func MessageMarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	message, err := MarkMessageRead(middleware.Actor(c), id)
	if err != nil {
		return fail(c, err)
	}

	return success(c, fiber.StatusOK, message)
}
