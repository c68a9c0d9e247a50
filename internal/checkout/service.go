package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/angelmondragon/farmconnect-backend/pkg/money"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type cartStore interface {
	LoadOwned(ctx context.Context, cartID string, userID uuid.UUID) (*cart.Cart, error)
	Discard(ctx context.Context, cartID string) error
}

type stockKeeper interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Consume(ctx context.Context, lines []products.StockLine) (*products.Consumption, error)
	Restore(ctx context.Context, consumption *products.Consumption) error
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service turns a cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, buyer cart.Owner, input PlaceOrderInput) (*orders.View, error)
}

// PlaceOrderInput is the checkout request after transport decoding.
type PlaceOrderInput struct {
	CartID        string
	PaymentMethod string
	Street        string
	City          string
	ZipCode       string
	PhoneNumber   string
	Notes         *string
}

// ServiceParams wires checkout.
type ServiceParams struct {
	Logger   *logger.Logger
	Carts    cartStore
	Stock    stockKeeper
	Orders   orderWriter
	Notifier notifications.Notifier
	Metrics  *metrics.CheckoutMetrics
}

type service struct {
	logg     *logger.Logger
	carts    cartStore
	stock    stockKeeper
	orders   orderWriter
	notifier notifications.Notifier
	metrics  *metrics.CheckoutMetrics
}

// NewService builds a checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		logg:     params.Logger,
		carts:    params.Carts,
		stock:    params.Stock,
		orders:   params.Orders,
		notifier: params.Notifier,
		metrics:  params.Metrics,
	}, nil
}

type uploaderKey struct {
	role enums.UserRole
	id   uuid.UUID
}

// PlaceOrder persists an order from the caller's cart, takes the stock, and
// consumes the cart. Once the order is written, any failure before the cart is
// deleted restores the stock and removes the order again.
func (s *service) PlaceOrder(ctx context.Context, buyer cart.Owner, input PlaceOrderInput) (*orders.View, error) {
	if !buyer.Role.CanCheckout() {
		if buyer.Role == enums.UserRoleSupplier {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Suppliers cannot place orders")
		}
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "Role '%s' cannot place orders", buyer.Role)
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(input.PaymentMethod))
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid payment method '%s'", input.PaymentMethod)
	}

	ctx = s.logg.WithCartID(ctx, input.CartID)
	userCart, err := s.carts.LoadOwned(ctx, input.CartID, buyer.UserID)
	if err != nil {
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "Cannot create order with empty cart")
	}

	order, catalog, err := s.snapshot(ctx, userCart, buyer, method, input)
	if err != nil {
		s.metrics.IncFailure("snapshot")
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.metrics.IncFailure("persist")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	lines := make([]products.StockLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, products.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	consumption, err := s.stock.Consume(ctx, lines)
	if err != nil {
		s.metrics.IncFailure("inventory")
		return nil, s.compensate(ctx, order, nil, err)
	}

	s.notifyUploaders(ctx, order)

	if err := s.carts.Discard(ctx, userCart.ID); err != nil {
		s.metrics.IncFailure("cart_delete")
		return nil, s.compensate(ctx, order, consumption, err)
	}

	s.notifier.Notify(ctx, notifications.Message{
		UserID: buyer.UserID,
		Type:   enums.NotificationTypeOrderPlaced,
		Title:  "Order Placed",
		Body:   "Your order has been successfully placed.",
	})

	s.metrics.IncPlaced()
	s.metrics.AddRetired(len(consumption.Retired))
	s.logg.Info(s.logg.WithField(ctx, "retired_listings", len(consumption.Retired)), "order placed")

	view := orders.NewView(*order, catalog)
	return &view, nil
}

// snapshot copies the cart lines and their uploaders into a pending order priced at current listing prices.
// Lines whose product has been deleted are dropped.
func (s *service) snapshot(ctx context.Context, userCart *cart.Cart, buyer cart.Owner, method enums.PaymentMethod, input PlaceOrderInput) (*models.Order, map[uuid.UUID]models.Product, error) {
	cartID, err := uuid.Parse(userCart.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid cart id")
	}

	ids := make([]uuid.UUID, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid product id in cart")
		}
		ids = append(ids, id)
	}
	catalog, err := s.stock.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		ID:       uuid.New(),
		UserID:   buyer.UserID,
		UserRole: buyer.Role,
		CartID:   cartID,
		Status:   enums.OrderStatusPending,
		Payment: models.PaymentInfo{
			Method: method,
			Status: enums.PaymentStatusPending,
		},
		Shipping: models.ShippingAddress{
			Street:      strings.TrimSpace(input.Street),
			City:        strings.TrimSpace(input.City),
			ZipCode:     strings.TrimSpace(input.ZipCode),
			PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		},
		Notes: input.Notes,
		Items: make([]models.OrderLineItem, 0, len(ids)),
	}
	for i, item := range userCart.Items {
		product, ok := catalog[ids[i]]
		if !ok {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID), "skipping deleted product at checkout")
			continue
		}
		order.TotalPriceCents += money.Mul(product.PriceCents, item.Quantity)
		order.Items = append(order.Items, models.OrderLineItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    product.ID,
			Quantity:     item.Quantity,
			UploaderID:   product.UploaderID,
			UploaderRole: product.UploaderRole,
		})
	}
	if len(order.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInvalidState, "Cannot create order with empty cart")
	}
	return order, catalog, nil
}

// notifyUploaders tells every distinct (role, uploader) once. The set is built before sending.
func (s *service) notifyUploaders(ctx context.Context, order *models.Order) {
	seen := map[uploaderKey]struct{}{}
	recipients := make([]uploaderKey, 0, len(order.Items))
	for _, item := range order.Items {
		key := uploaderKey{role: item.UploaderRole, id: item.UploaderID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, key)
	}

	for _, key := range recipients {
		s.notifier.Notify(ctx, notifications.Message{
			UserID: key.id,
			Type:   enums.NotificationTypeOrderReceived,
			Title:  "New Order Received",
			Body:   "Your product(s) were ordered. Check your dashboard.",
		})
	}
}

// compensate undoes a partially applied checkout and returns cause unchanged.
func (s *service) compensate(ctx context.Context, order *models.Order, consumption *products.Consumption, cause error) error {
	undoCtx := context.WithoutCancel(ctx)

	var undoErr error
	if consumption != nil {
		undoErr = multierr.Append(undoErr, s.stock.Restore(undoCtx, consumption))
	}
	undoErr = multierr.Append(undoErr, s.orders.Delete(undoCtx, order.ID))

	if undoErr != nil {
		s.metrics.IncCompensation(false)
		s.logg.Error(s.logg.WithField(ctx, "cause", cause.Error()), "checkout compensation incomplete", undoErr)
		return cause
	}
	s.metrics.IncCompensation(true)
	s.logg.Warn(s.logg.WithField(ctx, "cause", cause.Error()), "checkout rolled back")
	return cause
}
