package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/money"
	"github.com/google/uuid"
)

type inventory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Owner identifies the authenticated caller a cart belongs to.
type Owner struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service exposes the cart lifecycle for the caller's single cart.
type Service interface {
	AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*View, error)
	UpdateItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, owner Owner, lineItemID string) (*View, error)
	Clear(ctx context.Context, owner Owner) (bool, error)
	Get(ctx context.Context, owner Owner) (*View, error)
	Summary(ctx context.Context, owner Owner) (*Summary, error)
	Expiration(ctx context.Context, owner Owner) (*Expiration, error)

	// LoadOwned returns the cart with id when it belongs to userID and has not expired.
	LoadOwned(ctx context.Context, cartID string, userID uuid.UUID) (*Cart, error)
	// Discard deletes a cart by id. Missing carts are not an error.
	Discard(ctx context.Context, cartID string) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repository Repository
	Inventory  inventory
	Logger     *logger.Logger
	Config     config.CartConfig
}

type service struct {
	repo      Repository
	inventory inventory
	logg      *logger.Logger
	ttl       time.Duration
	keepAlive time.Duration
	now       func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.TTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &service{
		repo:      params.Repository,
		inventory: params.Inventory,
		logg:      params.Logger,
		ttl:       params.Config.TTL,
		keepAlive: params.Config.KeepAliveThreshold,
		now:       time.Now,
	}, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*View, error) {
	if productID == uuid.Nil || quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product ID and valid quantity are required")
	}
	if err := ensureCanOrder(owner.Role); err != nil {
		return nil, err
	}

	product, err := s.inventory.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "Product is not available")
	}
	if quantity > product.Quantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeOutOfStock, "Only %d units available", product.Quantity)
	}
	if owner.Role.CanOwnProduct() && product.UploaderID == owner.UserID && product.UploaderRole == owner.Role {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You cannot add your own product to cart")
	}

	now := s.now().UTC()
	cart, err := s.loadActive(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &Cart{
			ID:        uuid.NewString(),
			UserID:    owner.UserID.String(),
			UserRole:  owner.Role,
			CreatedAt: now,
		}
	}

	key := productID.String()
	if idx := cart.findByProduct(key); idx >= 0 {
		current := cart.Items[idx].Quantity
		if current+quantity > product.Quantity {
			return nil, pkgerrors.Newf(pkgerrors.CodeOutOfStock, "Only %d more units available", product.Quantity-current)
		}
		cart.Items[idx].Quantity = current + quantity
		cart.Items[idx].UnitPriceCents = product.PriceCents
	} else {
		cart.Items = append(cart.Items, LineItem{
			ID:             uuid.NewString(),
			ProductID:      key,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
			AddedAt:        now,
		})
	}

	return s.commitMutation(ctx, cart, now)
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Valid quantity is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product ID is required")
	}

	cart, err := s.loadActive(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	idx := cart.findByProduct(productID.String())
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart")
	}

	product, err := s.inventory.Get(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product no longer exists")
		}
		return nil, err
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "Product is no longer available")
	}
	if quantity > product.Quantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeOutOfStock, "Only %d units available for this product", product.Quantity)
	}

	cart.Items[idx].Quantity = quantity
	if cart.Items[idx].UnitPriceCents != product.PriceCents {
		cart.Items[idx].UnitPriceCents = product.PriceCents
	}
	return s.commitMutation(ctx, cart, s.now().UTC())
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, lineItemID string) (*View, error) {
	if lineItemID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Item id is required")
	}
	cart, err := s.loadActive(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	idx := cart.findByLineID(lineItemID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart")
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.commitMutation(ctx, cart, s.now().UTC())
}

// Clear reports whether a cart existed before the call.
func (s *service) Clear(ctx context.Context, owner Owner) (bool, error) {
	deleted, err := s.repo.DeleteByUser(ctx, owner.UserID.String())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return deleted, nil
}

func (s *service) Get(ctx context.Context, owner Owner) (*View, error) {
	cart, products, err := s.loadForRead(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return emptyView(owner.UserID), nil
	}
	return buildView(cart, products), nil
}

func (s *service) Summary(ctx context.Context, owner Owner) (*Summary, error) {
	cart, _, err := s.loadForRead(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &Summary{}, nil
	}
	expiresAt := cart.ExpiresAt
	days := int(cart.ExpiresAt.Sub(cart.LastActivity) / (24 * time.Hour))
	return &Summary{
		TotalItems:    cart.TotalItems(),
		TotalPrice:    money.Float(cart.TotalPriceCents),
		ExpiresAt:     &expiresAt,
		DaysRemaining: &days,
	}, nil
}

// Expiration returns nil when the caller has no active cart.
func (s *service) Expiration(ctx context.Context, owner Owner) (*Expiration, error) {
	cart, _, err := s.loadForRead(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, nil
	}
	return buildExpiration(cart, cart.LastActivity), nil
}

func (s *service) LoadOwned(ctx context.Context, cartID string, userID uuid.UUID) (*Cart, error) {
	notFound := pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found or doesn't belong to you")
	if cartID == "" {
		return nil, notFound
	}
	cart, err := s.repo.FindByIDAndOwner(ctx, cartID, userID.String())
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, notFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	now := s.now().UTC()
	if cart.expired(now) {
		s.dropExpired(ctx, cart)
		return nil, notFound
	}

	products, err := s.lookup(ctx, cart)
	if err != nil {
		return nil, err
	}
	before := len(cart.Items)
	prune(cart, products)
	if len(cart.Items) != before {
		recomputeTotal(cart, products)
		cart.UpdatedAt = now
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

func (s *service) Discard(ctx context.Context, cartID string) error {
	if _, err := s.repo.DeleteByID(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

// loadActive returns the caller's cart, or nil when none exists or it already expired.
func (s *service) loadActive(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID.String())
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.expired(s.now().UTC()) {
		s.dropExpired(ctx, cart)
		return nil, nil
	}
	return cart, nil
}

func (s *service) dropExpired(ctx context.Context, cart *Cart) {
	if _, err := s.repo.DeleteByID(ctx, cart.ID); err != nil {
		s.logg.Error(s.logg.WithCartID(ctx, cart.ID), "delete expired cart failed", err)
	}
}

// loadForRead reconciles the cart against the catalog and records the visit.
func (s *service) loadForRead(ctx context.Context, userID uuid.UUID) (*Cart, map[uuid.UUID]models.Product, error) {
	cart, err := s.loadActive(ctx, userID)
	if err != nil || cart == nil {
		return nil, nil, err
	}
	products, err := s.lookup(ctx, cart)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	prune(cart, products)
	recomputeTotal(cart, products)
	cart.LastActivity = now
	if s.keepAlive > 0 && cart.ExpiresAt.Sub(now) < s.keepAlive {
		cart.ExpiresAt = now.Add(s.ttl)
	}
	cart.UpdatedAt = now
	if err := s.save(ctx, cart); err != nil {
		return nil, nil, err
	}
	return cart, products, nil
}

func (s *service) commitMutation(ctx context.Context, cart *Cart, now time.Time) (*View, error) {
	products, err := s.lookup(ctx, cart)
	if err != nil {
		return nil, err
	}
	recomputeTotal(cart, products)
	cart.ExpiresAt = now.Add(s.ttl)
	cart.LastActivity = now
	cart.UpdatedAt = now
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return buildView(cart, products), nil
}

func (s *service) save(ctx context.Context, cart *Cart) error {
	if err := s.repo.Save(ctx, cart); err != nil {
		if errors.Is(err, ErrCartConflict) {
			return pkgerrors.New(pkgerrors.CodeConflict, "Cart was modified by another request, please retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) lookup(ctx context.Context, cart *Cart) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return s.inventory.GetMany(ctx, ids)
}

func ensureCanOrder(role enums.UserRole) error {
	if role.CanAddToCart() {
		return nil
	}
	if role == enums.UserRoleSupplier {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Suppliers are not allowed to order")
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "Role '%s' cannot add items to cart", role)
}

// prune drops lines whose product no longer exists.
func prune(cart *Cart, products map[uuid.UUID]models.Product) {
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if _, ok := productFor(item, products); ok {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
}

// recomputeTotal prices every line at the current listing price; missing products are skipped.
func recomputeTotal(cart *Cart, products map[uuid.UUID]models.Product) {
	var total int64
	for i := range cart.Items {
		product, ok := productFor(cart.Items[i], products)
		if !ok {
			continue
		}
		cart.Items[i].UnitPriceCents = product.PriceCents
		total += money.Mul(product.PriceCents, cart.Items[i].Quantity)
	}
	cart.TotalPriceCents = total
}

func productFor(item LineItem, products map[uuid.UUID]models.Product) (models.Product, bool) {
	id, err := uuid.Parse(item.ProductID)
	if err != nil {
		return models.Product{}, false
	}
	product, ok := products[id]
	return product, ok
}
