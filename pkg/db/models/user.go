package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

// User is the account record owned by the identity flows. This service only reads it.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Name      string         `gorm:"column:name;not null"`
	Phone     *string        `gorm:"column:phone"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
