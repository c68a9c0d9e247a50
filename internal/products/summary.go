package products

import (
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/money"
	"github.com/google/uuid"
)

// Summary is the product shape embedded in cart, wishlist and order payloads.
type Summary struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Category     string         `json:"category,omitempty"`
	Unit         string         `json:"unit,omitempty"`
	Price        float64        `json:"price"`
	Quantity     int            `json:"quantity"`
	IsAvailable  bool           `json:"isAvailable"`
	UploaderID   uuid.UUID      `json:"uploaderId"`
	UploaderRole enums.UserRole `json:"uploaderRole"`
}

// Summarize maps a listing into its payload shape.
func Summarize(p models.Product) *Summary {
	return &Summary{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Unit:         p.Unit,
		Price:        money.Float(p.PriceCents),
		Quantity:     p.Quantity,
		IsAvailable:  p.IsAvailable,
		UploaderID:   p.UploaderID,
		UploaderRole: p.UploaderRole,
	}
}
