package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/db"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	messages []notifications.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg notifications.Message) {
	r.messages = append(r.messages, msg)
}

type fixture struct {
	svc      Service
	repo     Repository
	products *products.Repository
	conn     *gorm.DB
	notifier *recordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, &models.Product{}, &models.Order{}, &models.OrderLineItem{})
	productRepo := products.NewRepository(conn)
	catalog, err := products.NewService(productRepo, db.Wrap(conn))
	require.NoError(t, err)

	repo := NewRepository(conn)
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{Repository: repo, Catalog: catalog, Notifier: notifier})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, products: productRepo, conn: conn, notifier: notifier}
}

func (f fixture) product(t *testing.T, uploader uuid.UUID) models.Product {
	t.Helper()
	p := models.Product{
		ID:           uuid.New(),
		Name:         "Green chillies",
		PriceCents:   120,
		Quantity:     20,
		IsAvailable:  true,
		UploaderID:   uploader,
		UploaderRole: enums.UserRoleFarmer,
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f fixture) order(t *testing.T, owner uuid.UUID, status enums.OrderStatus, createdAt time.Time, lines ...models.Product) models.Order {
	t.Helper()
	order := models.Order{
		UserID:          owner,
		UserRole:        enums.UserRoleBuyer,
		CartID:          uuid.New(),
		TotalPriceCents: 1000,
		Status:          status,
		Payment: models.PaymentInfo{
			Method: enums.PaymentMethodCashOnDelivery,
			Status: enums.PaymentStatusPending,
		},
		Shipping: models.ShippingAddress{
			Street: "12 Canal Road", City: "Lahore", ZipCode: "54000", PhoneNumber: "03001234567",
		},
		CreatedAt: createdAt,
	}
	for _, p := range lines {
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:    p.ID,
			Quantity:     1,
			UploaderID:   p.UploaderID,
			UploaderRole: p.UploaderRole,
		})
	}
	require.NoError(t, f.repo.Create(context.Background(), &order))
	return order
}

func TestCancelFromShippedIsRejected(t *testing.T) {
	f := newFixture(t)
	buyerID := uuid.New()
	p := f.product(t, uuid.New())
	order := f.order(t, buyerID, enums.OrderStatusShipped, time.Now(), p)

	_, err := f.svc.Cancel(context.Background(), order.ID, buyerID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, "Cannot cancel order in 'shipped' status", pkgerrors.As(err).Message())

	stored, err := f.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, stored.Status)
}

func TestCancelFromPendingAndProcessing(t *testing.T) {
	f := newFixture(t)
	buyerID := uuid.New()
	p := f.product(t, uuid.New())

	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing} {
		order := f.order(t, buyerID, status, time.Now(), p)
		view, err := f.svc.Cancel(context.Background(), order.ID, buyerID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCanceled, view.Status)
	}
}

func TestCancelOtherUsersOrder(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), f.product(t, uuid.New()))

	_, err := f.svc.Cancel(context.Background(), order.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateStatusAuthority(t *testing.T) {
	f := newFixture(t)
	uploader := uuid.New()
	mine := f.product(t, uploader)
	theirs := f.product(t, uuid.New())
	order := f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), mine, theirs)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleFarmer}, order.ID, "processing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	view, err := f.svc.UpdateStatus(ctx, Actor{UserID: uploader, Role: enums.UserRoleFarmer}, order.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, view.Status)
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, order.UserID, f.notifier.messages[0].UserID)

	view, err = f.svc.UpdateStatus(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, view.Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	order := f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), f.product(t, uuid.New()))
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, admin, order.ID, "shipped")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	_, err = f.svc.UpdateStatus(ctx, admin, order.ID, "pending")
	require.Error(t, err, "repeating the current status is rejected")

	_, err = f.svc.UpdateStatus(ctx, admin, order.ID, "teleported")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	for _, next := range []string{"processing", "shipped", "delivered"} {
		_, err = f.svc.UpdateStatus(ctx, admin, order.ID, next)
		require.NoError(t, err, next)
	}

	stored, err := f.repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, stored.Status)
	require.NotNil(t, stored.Delivery.DeliveredAt)

	_, err = f.svc.UpdateStatus(ctx, admin, order.ID, "canceled")
	require.Error(t, err)
}

func TestListMineNewestFirst(t *testing.T) {
	f := newFixture(t)
	buyerID := uuid.New()
	p := f.product(t, uuid.New())
	older := f.order(t, buyerID, enums.OrderStatusPending, time.Now().Add(-time.Hour), p)
	newer := f.order(t, buyerID, enums.OrderStatusPending, time.Now(), p)
	f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), p)

	views, err := f.svc.ListMine(context.Background(), buyerID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)
}

func TestGetResolvesRetiredProductAsNull(t *testing.T) {
	f := newFixture(t)
	buyerID := uuid.New()
	p := f.product(t, uuid.New())
	order := f.order(t, buyerID, enums.OrderStatusPending, time.Now(), p)
	require.NoError(t, f.products.Delete(context.Background(), p.ID))

	view, err := f.svc.Get(context.Background(), order.ID, buyerID)
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, p.ID, view.Products[0].ProductID)
	assert.Nil(t, view.Products[0].Product)

	_, err = f.svc.Get(context.Background(), order.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, "Order not found", pkgerrors.As(err).Message())
}

func TestListForUploaderFiltersItems(t *testing.T) {
	f := newFixture(t)
	uploader := uuid.New()
	mine := f.product(t, uploader)
	theirs := f.product(t, uuid.New())
	f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), mine, theirs)
	f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), theirs)

	views, err := f.svc.ListForUploader(context.Background(), uploader)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Products, 1)
	assert.Equal(t, mine.ID, views[0].Products[0].ProductID)
	require.NotNil(t, views[0].Products[0].Product)
}

func TestListByUploaderStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	uploader := uuid.New()
	f.order(t, uuid.New(), enums.OrderStatusPending, time.Now(), f.product(t, uploader))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.repo.ListByUploader(ctx, uploader)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	rows, err := f.repo.ListByUploader(context.Background(), uploader)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAdminListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, uuid.New())
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.order(t, uuid.New(), enums.OrderStatusPending, base.Add(time.Duration(i)*24*time.Hour), p)
	}
	f.order(t, uuid.New(), enums.OrderStatusShipped, base, p)
	ctx := context.Background()
	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	page, err := f.svc.AdminList(ctx, admin, AdminListInput{
		Filter: AdminFilter{Status: enums.OrderStatusPending},
		Page:   pagination.Params{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.EqualValues(t, 5, page.TotalOrders)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.True(t, page.Orders[0].CreatedAt.After(page.Orders[1].CreatedAt))

	from := base.Add(24 * time.Hour)
	to := base.Add(2*24*time.Hour + time.Hour)
	page, err = f.svc.AdminList(ctx, admin, AdminListInput{Filter: AdminFilter{From: &from, To: &to}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalOrders)
	assert.Equal(t, 1, page.CurrentPage)

	_, err = f.svc.AdminList(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleBuyer}, AdminListInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	page, err = f.svc.AdminList(ctx, admin, AdminListInput{Filter: AdminFilter{PaymentStatus: enums.PaymentStatusCompleted}})
	require.NoError(t, err)
	assert.Zero(t, page.TotalOrders)
	assert.Empty(t, page.Orders)
}
