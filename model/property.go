package model

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	PropertyAvailable = "disponible"
	PropertySold      = "vendu"
	PropertyRented    = "loué"
)

type Location struct {
	Address   string  `gorm:"not null" json:"address" validate:"required"`
	City      string  `gorm:"not null;index" json:"city" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type Features struct {
	Surface    float64 `gorm:"not null" json:"surface" validate:"gte=0"`
	Rooms      int     `json:"rooms" validate:"gte=0"`
	Bedrooms   int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms  int     `json:"bathrooms" validate:"gte=0"`
	HasParking bool    `json:"hasParking"`
	HasGarden  bool    `json:"hasGarden"`
	HasPool    bool    `json:"hasPool"`
}

type Property struct {
	Model
	OwnerID         uint            `gorm:"not null;index" json:"ownerId"`
	Owner           User            `gorm:"foreignKey:OwnerID" json:"owner" validate:"-"`
	Title           string          `gorm:"not null" json:"title" validate:"required"`
	Description     string          `gorm:"not null" json:"description" validate:"required"`
	Type            string          `gorm:"not null;index:idx_property_search,priority:1" json:"type" validate:"required,oneof=appartement maison villa terrain local"`
	TransactionType string          `gorm:"not null;index:idx_property_search,priority:2" json:"transactionType" validate:"required,oneof=vente location"`
	Price           float64         `gorm:"not null;index" json:"price" validate:"gte=0"`
	Location        Location        `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Features        Features        `gorm:"embedded;embeddedPrefix:features_" json:"features"`
	Images          []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images" validate:"-"`
	Status          string          `gorm:"not null;default:disponible;index:idx_property_search,priority:3" json:"status" validate:"oneof=disponible vendu loué"`
	Views           int             `gorm:"not null;default:0" json:"views"`
}

// PropertyImage keeps an uploaded picture base64 encoded.
type PropertyImage struct {
	Model
	PropertyID  uint   `gorm:"not null;index" json:"-"`
	ContentType string `gorm:"not null" json:"contentType"`
	Data        string `gorm:"not null" json:"-"`
	URL         string `gorm:"-" json:"url"`
}

func (i *PropertyImage) AfterFind(tx *gorm.DB) error {
	i.URL = ImageURL(i.ID)
	return nil
}

func ImageURL(id uint) string {
	return fmt.Sprintf("/v1/properties/images/%d", id)
}
