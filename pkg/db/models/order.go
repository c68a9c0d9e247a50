package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

// Order is the persisted result of a checkout.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	UserRole        enums.UserRole    `gorm:"column:user_role;type:text;not null"`
	CartID          uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	TotalPriceCents int64             `gorm:"column:total_price_cents;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Payment         PaymentInfo       `gorm:"embedded;embeddedPrefix:payment_"`
	Shipping        ShippingAddress   `gorm:"embedded;embeddedPrefix:shipping_"`
	Delivery        DeliveryInfo      `gorm:"embedded;embeddedPrefix:delivery_"`
	Notes           *string           `gorm:"column:notes"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// PaymentInfo is the payment sub-state; it moves independently of Status.
type PaymentInfo struct {
	Method        enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	TransactionID *string             `gorm:"column:transaction_id"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
}

type ShippingAddress struct {
	Street      string `gorm:"column:street;not null"`
	City        string `gorm:"column:city;not null"`
	ZipCode     string `gorm:"column:zip_code;not null"`
	PhoneNumber string `gorm:"column:phone_number;not null"`
}

type DeliveryInfo struct {
	EstimatedAt *time.Time `gorm:"column:estimated_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
}

// OrderLineItem snapshots one cart line. The uploader is copied so listing
// and authorization still work after the product is retired.
type OrderLineItem struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID      `gorm:"column:order_id;type:uuid;not null"`
	ProductID    uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Quantity     int            `gorm:"column:quantity;not null"`
	UploaderID   uuid.UUID      `gorm:"column:uploader_id;type:uuid;not null"`
	UploaderRole enums.UserRole `gorm:"column:uploader_role;type:text;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}
