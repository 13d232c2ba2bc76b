package event

import (
	"time"

	"estate-service/model"
)

// Queues
const (
	QueueApi        = "api"
	QueueBackoffice = "backoffice"
)

// Actions
const (
	MessageSent     = "message.sent"
	MessageRead     = "message.read"
	PropertyCreated = "property.created"
	PropertyDeleted = "property.deleted"
	FavoriteAdded   = "favorite.added"
	FavoriteRemoved = "favorite.removed"
)

type MessagePayload struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"senderId"`
	ReceiverID uint      `json:"receiverId"`
	PropertyID *uint     `json:"propertyId"`
	Text       string    `json:"text"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessagePayload(m model.Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		PropertyID: m.PropertyID,
		Text:       m.Text,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

type PropertyPayload struct {
	ID      uint `json:"id"`
	OwnerID uint `json:"ownerId"`
	ActorID uint `json:"actorId"`
}

type FavoritePayload struct {
	UserID     uint `json:"userId"`
	PropertyID uint `json:"propertyId"`
}
