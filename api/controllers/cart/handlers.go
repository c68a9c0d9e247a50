package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/farmconnect-backend/api/controllers/actor"
	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/api/validators"
	cartsvc "github.com/angelmondragon/farmconnect-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
}

func cartPayload(view *cartsvc.View) responses.Payload {
	return responses.Payload{"cart": view, "expiresAt": view.ExpiresAt}
}

// Add adds a product to the caller's cart or increments its quantity.
func Add(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := actor.OptionalUUID(payload.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), owner, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Item added to cart", cartPayload(view))
	}
}

// Mine returns the caller's reconciled cart.
func Mine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(view))
	}
}

// Update sets the quantity of a product already in the cart.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := actor.OptionalUUID(payload.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateItem(r.Context(), owner, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Cart item updated successfully", cartPayload(view))
	}
}

// RemoveItem drops one line item by its id.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveItem(r.Context(), owner, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Item removed from cart", cartPayload(view))
	}
}

// Clear deletes the caller's cart.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		existed, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !existed {
			responses.WriteMessage(w, "Cart is already empty", nil)
			return
		}
		responses.WriteMessage(w, "Cart cleared successfully", nil)
	}
}

// Summary returns the item count and total.
func Summary(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"summary": summary})
	}
}

// Expiry reports how long the caller's cart has left.
func Expiry(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		owner, err := actor.Owner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiration, err := svc.Expiration(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if expiration == nil {
			responses.WriteMessage(w, "No active cart found", nil)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"expiration": expiration})
	}
}
