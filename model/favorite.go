package model

import "time"

// Favorite rows are hard deleted so the pair can be favorited again; the
// unique index backs the check-then-insert in the favorites controller.
type Favorite struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_favorite_pair" json:"userId"`
	PropertyID uint      `gorm:"not null;uniqueIndex:idx_favorite_pair" json:"propertyId"`
	Property   Property  `gorm:"foreignKey:PropertyID" json:"property"`
	CreatedAt  time.Time `json:"createdAt"`
}
