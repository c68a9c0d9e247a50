package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/farmconnect-backend/internal/checkout"
	internalorders "github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type stubCheckout struct {
	input checkoutsvc.PlaceOrderInput
	buyer cart.Owner
	err   error
}

func (s *stubCheckout) PlaceOrder(_ context.Context, buyer cart.Owner, input checkoutsvc.PlaceOrderInput) (*internalorders.View, error) {
	s.buyer, s.input = buyer, input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.View{ID: uuid.New(), Status: enums.OrderStatusPending}, nil
}

type stubOrders struct {
	internalorders.Service
	adminInput  internalorders.AdminListInput
	adminCalled bool
	cancelErr   error
	statusSeen  string
	orderSeen   uuid.UUID
}

func (s *stubOrders) AdminList(_ context.Context, _ internalorders.Actor, input internalorders.AdminListInput) (*internalorders.AdminPage, error) {
	s.adminCalled = true
	s.adminInput = input
	return &internalorders.AdminPage{Count: 0, TotalOrders: 0, TotalPages: 0, CurrentPage: input.Page.Page, Orders: []internalorders.View{}}, nil
}

func (s *stubOrders) Cancel(_ context.Context, orderID, _ uuid.UUID) (*internalorders.View, error) {
	s.orderSeen = orderID
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &internalorders.View{ID: orderID, Status: enums.OrderStatusCanceled}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ internalorders.Actor, orderID uuid.UUID, status string) (*internalorders.View, error) {
	s.orderSeen, s.statusSeen = orderID, status
	return &internalorders.View{ID: orderID, Status: enums.OrderStatus(status)}, nil
}

func authed(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPlaceOrderReturnsCreated(t *testing.T) {
	svc := &stubCheckout{}
	userID := uuid.New()
	body := `{"cartId":"cart-1","paymentMethod":"cash-on-delivery","street":" 12 Mall Rd ","city":"Lahore","zipCode":"54000","phoneNumber":"0300","notes":"ring twice"}`

	req := httptest.NewRequest(http.MethodPost, "/order/place-order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PlaceOrder(svc, logger.Nop()).ServeHTTP(rec, authed(req, userID, enums.UserRoleBuyer))

	require.Equal(t, http.StatusCreated, rec.Code)
	payload := decode(t, rec)
	assert.Equal(t, "Order created successfully", payload["message"])
	assert.NotNil(t, payload["order"])
	assert.Equal(t, "cart-1", svc.input.CartID)
	assert.Equal(t, "12 Mall Rd", svc.input.Street)
	require.NotNil(t, svc.input.Notes)
	assert.Equal(t, "ring twice", *svc.input.Notes)
	assert.Equal(t, userID, svc.buyer.UserID)
}

func TestPlaceOrderValidatesRequiredFields(t *testing.T) {
	svc := &stubCheckout{}
	req := httptest.NewRequest(http.MethodPost, "/order/place-order", strings.NewReader(`{"cartId":"cart-1"}`))
	rec := httptest.NewRecorder()
	PlaceOrder(svc, logger.Nop()).ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleBuyer))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decode(t, rec)
	assert.Equal(t, false, payload["success"])
	assert.NotNil(t, payload["details"])
	assert.Empty(t, svc.input.CartID)
}

func TestPlaceOrderRendersEmptyCart(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeInvalidState, "Cannot create order with empty cart")}
	body := `{"cartId":"cart-1","paymentMethod":"easypaisa","street":"a","city":"b","zipCode":"c","phoneNumber":"d"}`
	req := httptest.NewRequest(http.MethodPost, "/order/place-order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	PlaceOrder(svc, logger.Nop()).ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleBuyer))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot create order with empty cart", decode(t, rec)["message"])
}

func TestCancelRendersInvalidState(t *testing.T) {
	svc := &stubOrders{cancelErr: pkgerrors.New(pkgerrors.CodeInvalidState, "Cannot cancel order in 'shipped' status")}
	orderID := uuid.New()
	router := chi.NewRouter()
	router.Put("/order/cancel/{orderId}", Cancel(svc, logger.Nop()))

	req := httptest.NewRequest(http.MethodPut, "/order/cancel/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleBuyer))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot cancel order in 'shipped' status", decode(t, rec)["message"])
	assert.Equal(t, orderID, svc.orderSeen)
}

func TestCancelWithMalformedIDIsNotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/order/cancel/{orderId}", Cancel(&stubOrders{}, logger.Nop()))

	req := httptest.NewRequest(http.MethodPut, "/order/cancel/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleBuyer))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decode(t, rec)["message"])
}

func TestUpdateStatusPassesRawStatus(t *testing.T) {
	svc := &stubOrders{}
	orderID := uuid.New()
	router := chi.NewRouter()
	router.Put("/order/update-status/{orderId}", UpdateStatus(svc, logger.Nop()))

	req := httptest.NewRequest(http.MethodPut, "/order/update-status/"+orderID.String(), strings.NewReader(`{"status":"processing"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", svc.statusSeen)
	assert.Equal(t, "Order status updated successfully", decode(t, rec)["message"])
}

func TestAdminListParsesFilters(t *testing.T) {
	svc := &stubOrders{}
	req := httptest.NewRequest(http.MethodGet, "/order/all?status=shipped&paymentStatus=pending&startDate=2026-01-01&endDate=2026-01-31&page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	AdminList(svc, logger.Nop()).ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.adminCalled)
	assert.Equal(t, enums.OrderStatusShipped, svc.adminInput.Filter.Status)
	assert.Equal(t, enums.PaymentStatusPending, svc.adminInput.Filter.PaymentStatus)
	require.NotNil(t, svc.adminInput.Filter.From)
	require.NotNil(t, svc.adminInput.Filter.To)
	assert.Equal(t, 2, svc.adminInput.Page.Page)
	assert.Equal(t, 5, svc.adminInput.Page.Limit)

	payload := decode(t, rec)
	assert.Equal(t, float64(2), payload["currentPage"])
	assert.Contains(t, payload, "totalOrders")
	assert.Contains(t, payload, "totalPages")
}

func TestAdminListForbiddenForNonAdmins(t *testing.T) {
	svc := &stubOrders{}
	req := httptest.NewRequest(http.MethodGet, "/order/all?status=bogus", nil)
	rec := httptest.NewRecorder()
	AdminList(svc, logger.Nop()).ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleSupplier))

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to access all orders", decode(t, rec)["message"])
	assert.False(t, svc.adminCalled)
}

func TestAdminListRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrders{}
	req := httptest.NewRequest(http.MethodGet, "/order/all?status=lost", nil)
	rec := httptest.NewRecorder()
	AdminList(svc, logger.Nop()).ServeHTTP(rec, authed(req, uuid.New(), enums.UserRoleAdmin))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.adminCalled)
}
