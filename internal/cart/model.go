package cart

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

// Cart is the per-user shopping cart document.
type Cart struct {
	ID              string         `bson:"_id"`
	UserID          string         `bson:"user_id"`
	UserRole        enums.UserRole `bson:"user_role"`
	Items           []LineItem     `bson:"items"`
	TotalPriceCents int64          `bson:"total_price_cents"`
	ExpiresAt       time.Time      `bson:"expires_at"`
	LastActivity    time.Time      `bson:"last_activity"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

// LineItem is one product inside a cart. ProductID is unique within a cart.
type LineItem struct {
	ID        string `bson:"id"`
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
	// UnitPriceCents caches the listing price seen at the last mutation.
	UnitPriceCents int64     `bson:"unit_price_cents"`
	AddedAt        time.Time `bson:"added_at"`
}

func (c *Cart) findByProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) findByLineID(lineID string) int {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}

// TotalItems sums quantities across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
