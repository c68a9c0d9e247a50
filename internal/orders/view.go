package orders

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/money"
	"github.com/google/uuid"
)

// View is the order payload; product details are resolved at read time.
type View struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"userId"`
	UserRole        enums.UserRole    `json:"userRole"`
	CartID          uuid.UUID         `json:"cartId"`
	Products        []ItemView        `json:"products"`
	TotalPrice      float64           `json:"totalPrice"`
	Status          enums.OrderStatus `json:"status"`
	PaymentInfo     PaymentView       `json:"paymentInfo"`
	ShippingAddress ShippingView      `json:"shippingAddress"`
	DeliveryInfo    DeliveryView      `json:"deliveryInfo"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// ItemView carries the snapshot line; Product is null once the listing is retired.
type ItemView struct {
	ProductID    uuid.UUID         `json:"productId"`
	Quantity     int               `json:"quantity"`
	UploaderID   uuid.UUID         `json:"uploaderId"`
	UploaderRole enums.UserRole    `json:"uploaderRole"`
	Product      *products.Summary `json:"product"`
}

type PaymentView struct {
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transactionId,omitempty"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
}

type ShippingView struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	ZipCode     string `json:"zipCode"`
	PhoneNumber string `json:"phoneNumber"`
}

type DeliveryView struct {
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time `json:"actualDeliveryDate,omitempty"`
}

// AdminPage is one page of the administrator listing.
type AdminPage struct {
	Count       int    `json:"count"`
	TotalOrders int64  `json:"totalOrders"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Orders      []View `json:"orders"`
}

// NewView renders an order using catalog for product details.
func NewView(order models.Order, catalog map[uuid.UUID]models.Product) View {
	view := View{
		ID:         order.ID,
		UserID:     order.UserID,
		UserRole:   order.UserRole,
		CartID:     order.CartID,
		Products:   make([]ItemView, 0, len(order.Items)),
		TotalPrice: money.Float(order.TotalPriceCents),
		Status:     order.Status,
		PaymentInfo: PaymentView{
			Method:        order.Payment.Method,
			Status:        order.Payment.Status,
			TransactionID: order.Payment.TransactionID,
			PaidAt:        order.Payment.PaidAt,
		},
		ShippingAddress: ShippingView{
			Street:      order.Shipping.Street,
			City:        order.Shipping.City,
			ZipCode:     order.Shipping.ZipCode,
			PhoneNumber: order.Shipping.PhoneNumber,
		},
		DeliveryInfo: DeliveryView{
			EstimatedDeliveryDate: order.Delivery.EstimatedAt,
			ActualDeliveryDate:    order.Delivery.DeliveredAt,
		},
		Notes:     order.Notes,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	for _, item := range order.Items {
		iv := ItemView{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			UploaderID:   item.UploaderID,
			UploaderRole: item.UploaderRole,
		}
		if product, ok := catalog[item.ProductID]; ok {
			iv.Product = products.Summarize(product)
		}
		view.Products = append(view.Products, iv)
	}
	return view
}
