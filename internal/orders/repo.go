package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the order persistence surface.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID) ([]models.Order, error)
	AdminList(ctx context.Context, filter AdminFilter, page pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (bool, error)
}

// AdminFilter narrows the administrator listing. Zero values do not filter.
type AdminFilter struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	From          *time.Time
	To            *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the order together with its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLineItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.withItems(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByUploader returns orders with at least one line uploaded by uploaderID. Items are not filtered.
func (r *repository) ListByUploader(ctx context.Context, uploaderID uuid.UUID) ([]models.Order, error) {
	touched := r.db.WithContext(ctx).Model(&models.OrderLineItem{}).
		Select("order_id").
		Where("uploader_id = ?", uploaderID)

	var orders []models.Order
	err := r.withItems(ctx).
		Where("id IN (?)", touched).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) AdminList(ctx context.Context, filter AdminFilter, page pagination.Params) ([]models.Order, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items", orderItems).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves id from one status to the next and reports false when
// the order was no longer in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if deliveredAt != nil {
		updates["delivery_delivered_at"] = *deliveredAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", orderItems)
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
