package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalog interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// AdminListInput carries the administrator listing query.
type AdminListInput struct {
	Filter AdminFilter
	Page   pagination.Params
}

// Service exposes order queries and status management.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]View, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*View, error)
	ListForUploader(ctx context.Context, uploaderID uuid.UUID) ([]View, error)
	AdminList(ctx context.Context, actor Actor, input AdminListInput) (*AdminPage, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status string) (*View, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*View, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repository Repository
	Catalog    catalog
	// Notifier is optional; buyers are told about status changes when set.
	Notifier notifications.Notifier
}

type service struct {
	repo     Repository
	catalog  catalog
	notifier notifications.Notifier
	now      func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{
		repo:     params.Repository,
		catalog:  params.Catalog,
		notifier: params.Notifier,
		now:      time.Now,
	}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]View, error) {
	rows, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return s.views(ctx, rows)
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*View, error) {
	order, err := s.repo.FindByIDAndOwner(ctx, orderID, userID)
	if err != nil {
		return nil, translateLoadErr(err)
	}
	return s.view(ctx, *order)
}

// ListForUploader trims every order down to the lines uploaded by uploaderID.
func (s *service) ListForUploader(ctx context.Context, uploaderID uuid.UUID) ([]View, error) {
	rows, err := s.repo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list uploader orders")
	}
	filtered := make([]models.Order, 0, len(rows))
	for _, order := range rows {
		items := make([]models.OrderLineItem, 0, len(order.Items))
		for _, item := range order.Items {
			if item.UploaderID == uploaderID {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		order.Items = items
		filtered = append(filtered, order)
	}
	return s.views(ctx, filtered)
}

func (s *service) AdminList(ctx context.Context, actor Actor, input AdminListInput) (*AdminPage, error) {
	if !actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to access all orders")
	}
	f := input.Filter
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startDate must not be after endDate")
	}
	page := input.Page.Normalize()

	rows, total, err := s.repo.AdminList(ctx, f, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list all orders")
	}
	views, err := s.views(ctx, rows)
	if err != nil {
		return nil, err
	}
	meta := pagination.Describe(page, total)
	return &AdminPage{
		Count:       len(views),
		TotalOrders: meta.Total,
		TotalPages:  meta.TotalPages,
		CurrentPage: meta.CurrentPage,
		Orders:      views,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, raw string) (*View, error) {
	next, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid order status '%s'", raw)
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, translateLoadErr(err)
	}
	if !canManage(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You don't have permission to update this order")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidState, "Cannot change order status from '%s' to '%s'", order.Status, next)
	}

	var deliveredAt *time.Time
	if next == enums.OrderStatusDelivered {
		now := s.now().UTC()
		deliveredAt = &now
	}
	if err := s.transition(ctx, order, next, deliveredAt); err != nil {
		return nil, err
	}

	s.notifyBuyer(ctx, order, fmt.Sprintf("Your order is now %s.", next))
	return s.view(ctx, *order)
}

func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*View, error) {
	order, err := s.repo.FindByIDAndOwner(ctx, orderID, userID)
	if err != nil {
		return nil, translateLoadErr(err)
	}
	if !order.Status.IsCancelable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidState, "Cannot cancel order in '%s' status", order.Status)
	}
	if err := s.transition(ctx, order, enums.OrderStatusCanceled, nil); err != nil {
		return nil, err
	}
	return s.view(ctx, *order)
}

func (s *service) transition(ctx context.Context, order *models.Order, next enums.OrderStatus, deliveredAt *time.Time) error {
	ok, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, next, deliveredAt)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "Order status changed concurrently, reload and retry")
	}
	order.Status = next
	if deliveredAt != nil {
		order.Delivery.DeliveredAt = deliveredAt
	}
	order.UpdatedAt = s.now().UTC()
	return nil
}

func (s *service) notifyBuyer(ctx context.Context, order *models.Order, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notifications.Message{
		UserID: order.UserID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Order status updated",
		Body:   body,
	})
}

// canManage grants status authority to admins and to the uploader of any line.
func canManage(actor Actor, order *models.Order) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	for _, item := range order.Items {
		if item.UploaderID == actor.UserID {
			return true
		}
	}
	return false
}

func (s *service) view(ctx context.Context, order models.Order) (*View, error) {
	views, err := s.views(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) views(ctx context.Context, rows []models.Order) ([]View, error) {
	seen := map[uuid.UUID]struct{}{}
	ids := make([]uuid.UUID, 0)
	for _, order := range rows {
		for _, item := range order.Items {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	catalog, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(rows))
	for _, order := range rows {
		out = append(out, NewView(order, catalog))
	}
	return out, nil
}

func translateLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
