package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/google/uuid"
)

type inventory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type cartAdder interface {
	AddItem(ctx context.Context, owner cart.Owner, productID uuid.UUID, quantity int) (*cart.View, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	Add(ctx context.Context, owner cart.Owner, productID uuid.UUID) (bool, error)
	List(ctx context.Context, owner cart.Owner) (*View, error)
	Remove(ctx context.Context, owner cart.Owner, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, owner cart.Owner) error
	MoveToCart(ctx context.Context, owner cart.Owner, productID uuid.UUID, quantity int) (*cart.View, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repository Repository
	Inventory  inventory
	Cart       cartAdder
}

type service struct {
	repo      Repository
	inventory inventory
	cart      cartAdder
	now       func() time.Time
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{
		repo:      params.Repository,
		inventory: params.Inventory,
		cart:      params.Cart,
		now:       time.Now,
	}, nil
}

// View lists wishlist entries with the current product details.
type View struct {
	UserID   string             `json:"userId"`
	Products []products.Summary `json:"products"`
}

// Add reports false when the product was already wishlisted.
func (s *service) Add(ctx context.Context, owner cart.Owner, productID uuid.UUID) (bool, error) {
	if productID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "Product ID is required")
	}
	product, err := s.inventory.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	if owner.Role.CanOwnProduct() && product.UploaderID == owner.UserID && product.UploaderRole == owner.Role {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "You cannot add your own product to wishlist")
	}

	now := s.now().UTC()
	wishlist, err := s.find(ctx, owner.UserID)
	if err != nil {
		return false, err
	}
	if wishlist == nil {
		wishlist = &Wishlist{UserID: owner.UserID.String(), UserRole: owner.Role, CreatedAt: now}
	}
	if wishlist.indexOf(productID.String()) >= 0 {
		return false, nil
	}
	wishlist.Items = append(wishlist.Items, Item{ProductID: productID.String(), AddedAt: now})
	wishlist.UpdatedAt = now
	if err := s.repo.Save(ctx, wishlist); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return true, nil
}

func (s *service) List(ctx context.Context, owner cart.Owner) (*View, error) {
	wishlist, err := s.find(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if wishlist == nil {
		return &View{UserID: owner.UserID.String(), Products: []products.Summary{}}, nil
	}
	return s.reconcile(ctx, wishlist)
}

func (s *service) Remove(ctx context.Context, owner cart.Owner, productID uuid.UUID) (*View, error) {
	wishlist, err := s.find(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if wishlist == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Wishlist not found")
	}
	idx := wishlist.indexOf(productID.String())
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found in wishlist")
	}
	wishlist.remove(idx)
	wishlist.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, wishlist); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return s.reconcile(ctx, wishlist)
}

func (s *service) Clear(ctx context.Context, owner cart.Owner) error {
	if err := s.repo.Delete(ctx, owner.UserID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}

// MoveToCart adds a wishlisted product to the cart and then drops it from the wishlist.
func (s *service) MoveToCart(ctx context.Context, owner cart.Owner, productID uuid.UUID, quantity int) (*cart.View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product ID is required")
	}
	if quantity == 0 {
		quantity = 1
	}

	wishlist, err := s.find(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if wishlist == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Wishlist not found")
	}
	if wishlist.indexOf(productID.String()) < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found in wishlist")
	}

	view, err := s.cart.AddItem(ctx, owner, productID, quantity)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			if _, rmErr := s.repo.RemoveProduct(ctx, owner.UserID.String(), productID.String()); rmErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rmErr, "prune wishlist")
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product no longer exists")
		}
		return nil, err
	}

	if _, err := s.repo.RemoveProduct(ctx, owner.UserID.String(), productID.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return view, nil
}

func (s *service) find(ctx context.Context, userID uuid.UUID) (*Wishlist, error) {
	wishlist, err := s.repo.Find(ctx, userID.String())
	if err != nil {
		if errors.Is(err, ErrWishlistNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return wishlist, nil
}

// reconcile drops entries whose product is gone, saving only when something changed.
func (s *service) reconcile(ctx context.Context, wishlist *Wishlist) (*View, error) {
	ids := make([]uuid.UUID, 0, len(wishlist.Items))
	for _, item := range wishlist.Items {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	catalog, err := s.inventory.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &View{UserID: wishlist.UserID, Products: make([]products.Summary, 0, len(wishlist.Items))}
	kept := make([]Item, 0, len(wishlist.Items))
	for _, item := range wishlist.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			continue
		}
		product, ok := catalog[id]
		if !ok {
			continue
		}
		kept = append(kept, item)
		view.Products = append(view.Products, *products.Summarize(product))
	}

	if len(kept) != len(wishlist.Items) {
		wishlist.Items = kept
		wishlist.UpdatedAt = s.now().UTC()
		if err := s.repo.Save(ctx, wishlist); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
		}
	}
	return view, nil
}
