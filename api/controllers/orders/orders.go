package orders

import (
	"net/http"

	"github.com/angelmondragon/farmconnect-backend/api/controllers/actor"
	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/farmconnect-backend/internal/checkout"
	internalorders "github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
)

const orderNotFound = "Order not found"

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
}

// PlaceOrder converts the caller's cart into an order.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		buyer, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.PlaceOrderInput{
			CartID:        validators.SanitizeString(payload.CartID, 64),
			PaymentMethod: validators.SanitizeString(payload.PaymentMethod, 32),
			Street:        validators.SanitizeString(payload.Street, 200),
			City:          validators.SanitizeString(payload.City, 100),
			ZipCode:       validators.SanitizeString(payload.ZipCode, 20),
			PhoneNumber:   validators.SanitizeString(payload.PhoneNumber, 30),
		}
		if payload.Notes != nil {
			notes := validators.SanitizeString(*payload.Notes, 1000)
			input.Notes = &notes
		}

		order, err := svc.PlaceOrder(r.Context(), buyer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "Order created successfully", responses.Payload{"order": order})
	}
}

// Mine lists the caller's orders, newest first.
func Mine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMine(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"count": len(list), "orders": list})
	}
}

// Detail returns one of the caller's orders.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := actor.PathUUID(r, "orderId", orderNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"order": order})
	}
}

// UpdateStatus moves an order one step along its lifecycle.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := actor.PathUUID(r, "orderId", orderNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), caller, orderID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Order status updated successfully", responses.Payload{"order": order})
	}
}

// Cancel cancels one of the caller's orders while it is still pending or processing.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := actor.PathUUID(r, "orderId", orderNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), orderID, caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Order canceled successfully", responses.Payload{"order": order})
	}
}

// SupplierOrders lists orders containing the caller's products, limited to those lines.
func SupplierOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForUploader(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"count": len(list), "orders": list})
	}
}

// AdminList pages through every order with optional filters.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		caller, err := actor.OrderActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Role first so non-admins never learn about query validation.
		if !caller.Role.IsAdmin() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to access all orders"))
			return
		}

		input, err := parseAdminListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.AdminList(r.Context(), caller, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{
			"count":       page.Count,
			"totalOrders": page.TotalOrders,
			"totalPages":  page.TotalPages,
			"currentPage": page.CurrentPage,
			"orders":      page.Orders,
		})
	}
}

func parseAdminListInput(r *http.Request) (internalorders.AdminListInput, error) {
	var input internalorders.AdminListInput

	page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1_000_000)
	if err != nil {
		return input, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return input, err
	}
	input.Page = pagination.Params{Page: page, Limit: limit}

	if raw := validators.QueryString(r, "status"); raw != nil {
		status, err := enums.ParseOrderStatus(*raw)
		if err != nil {
			return input, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid order status '%s'", *raw)
		}
		input.Filter.Status = status
	}
	if raw := validators.QueryString(r, "paymentStatus"); raw != nil {
		status, err := enums.ParsePaymentStatus(*raw)
		if err != nil {
			return input, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid payment status '%s'", *raw)
		}
		input.Filter.PaymentStatus = status
	}
	if input.Filter.From, err = validators.ParseQueryDate(r, "startDate", false); err != nil {
		return input, err
	}
	if input.Filter.To, err = validators.ParseQueryDate(r, "endDate", true); err != nil {
		return input, err
	}
	return input, nil
}
