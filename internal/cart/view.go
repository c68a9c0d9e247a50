package cart

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/money"
	"github.com/google/uuid"
)

// View is the reconciled cart returned to clients.
type View struct {
	ID           string     `json:"id,omitempty"`
	UserID       string     `json:"userId"`
	Items        []ItemView `json:"products"`
	TotalPrice   float64    `json:"totalPrice"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

// ItemView is a line item with its current product details; Product is nil once the listing is gone.
type ItemView struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	UnitPrice float64           `json:"price"`
	Subtotal  float64           `json:"subtotal"`
	AddedAt   time.Time         `json:"addedAt"`
	Product   *products.Summary `json:"product"`
}

type Summary struct {
	TotalItems    int        `json:"totalItems"`
	TotalPrice    float64    `json:"totalPrice"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
}

type Expiration struct {
	ExpiresAt     time.Time     `json:"expiresAt"`
	LastActivity  time.Time     `json:"lastActivity"`
	TimeRemaining TimeRemaining `json:"timeRemaining"`
}

type TimeRemaining struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	// Total is in milliseconds.
	Total int64 `json:"total"`
}

func emptyView(userID uuid.UUID) *View {
	return &View{UserID: userID.String(), Items: []ItemView{}}
}

func buildView(cart *Cart, catalog map[uuid.UUID]models.Product) *View {
	expiresAt, lastActivity := cart.ExpiresAt, cart.LastActivity
	view := &View{
		ID:           cart.ID,
		UserID:       cart.UserID,
		Items:        make([]ItemView, 0, len(cart.Items)),
		TotalPrice:   money.Float(cart.TotalPriceCents),
		ExpiresAt:    &expiresAt,
		LastActivity: &lastActivity,
	}
	for _, item := range cart.Items {
		iv := ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money.Float(item.UnitPriceCents),
			Subtotal:  money.Float(money.Mul(item.UnitPriceCents, item.Quantity)),
			AddedAt:   item.AddedAt,
		}
		if product, ok := productFor(item, catalog); ok {
			iv.Product = products.Summarize(product)
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

// buildExpiration splits the time left before expiry measured from now.
func buildExpiration(cart *Cart, now time.Time) *Expiration {
	remaining := cart.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	const day = 24 * time.Hour
	return &Expiration{
		ExpiresAt:    cart.ExpiresAt,
		LastActivity: cart.LastActivity,
		TimeRemaining: TimeRemaining{
			Days:    int64(remaining / day),
			Hours:   int64((remaining % day) / time.Hour),
			Minutes: int64((remaining % time.Hour) / time.Minute),
			Total:   remaining.Milliseconds(),
		},
	}
}
