package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

// Product is a catalog listing uploaded by a farmer or supplier.
type Product struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Category     string         `gorm:"column:category;not null;default:''"`
	Unit         string         `gorm:"column:unit;not null;default:''"`
	PriceCents   int64          `gorm:"column:price_cents;not null"`
	Quantity     int            `gorm:"column:quantity;not null"`
	IsAvailable  bool           `gorm:"column:is_available;not null;default:true"`
	UploaderID   uuid.UUID      `gorm:"column:uploader_id;type:uuid;not null"`
	UploaderRole enums.UserRole `gorm:"column:uploader_role;type:text;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
