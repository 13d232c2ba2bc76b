package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRecord = errors.New("invalid record")

type Message struct {
	Model
	SenderID   uint      `gorm:"not null;index:idx_message_pair,priority:1" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index:idx_message_pair,priority:2" json:"receiverId"`
	PropertyID *uint     `json:"propertyId"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"sender"`
	Receiver   User      `gorm:"foreignKey:ReceiverID" json:"receiver"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Text       string    `gorm:"not null" json:"text"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
}

// NewMessage builds an unread message, rejecting records the conversation
// view could not place.
func NewMessage(senderID, receiverID uint, text string, propertyID *uint) (*Message, error) {
	message := &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		PropertyID: propertyID,
		Text:       strings.TrimSpace(text),
	}
	if err := message.Validate(); err != nil {
		return nil, err
	}
	if message.Text == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidRecord)
	}
	return message, nil
}

// Validate checks the endpoints of a message.
func (m *Message) Validate() error {
	switch {
	case m.SenderID == 0:
		return fmt.Errorf("%w: message %d has no sender", ErrInvalidRecord, m.ID)
	case m.ReceiverID == 0:
		return fmt.Errorf("%w: message %d has no receiver", ErrInvalidRecord, m.ID)
	case m.SenderID == m.ReceiverID:
		return fmt.Errorf("%w: message %d is addressed to its sender", ErrInvalidRecord, m.ID)
	}
	return nil
}
