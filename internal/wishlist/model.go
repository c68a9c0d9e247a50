package wishlist

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

// Wishlist is keyed by its owner; there is at most one per user.
type Wishlist struct {
	UserID    string         `bson:"_id"`
	UserRole  enums.UserRole `bson:"user_role"`
	Items     []Item         `bson:"items"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type Item struct {
	ProductID string    `bson:"product_id"`
	AddedAt   time.Time `bson:"added_at"`
}

func (w *Wishlist) indexOf(productID string) int {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (w *Wishlist) remove(idx int) {
	w.Items = append(w.Items[:idx], w.Items[idx+1:]...)
}
