package wishlist

import (
	"net/http"

	"github.com/angelmondragon/farmconnect-backend/api/controllers/actor"
	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/api/validators"
	wishlistsvc "github.com/angelmondragon/farmconnect-backend/internal/wishlist"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type addRequest struct {
	ProductID string `json:"productId"`
}

type moveRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
}

func Add(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var payload addRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := actor.OptionalUUID(payload.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		added, err := svc.Add(r.Context(), owner, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !added {
			responses.WriteMessage(w, "Product already in wishlist", nil)
			return
		}
		responses.WriteMessage(w, "Product added to wishlist", nil)
	}
}

func Mine(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		view, err := svc.List(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Payload{"wishlist": view})
	}
}

func Remove(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		productID, err := actor.PathUUID(r, "productId", "Product not found in wishlist")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Remove(r.Context(), owner, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Product removed from wishlist", responses.Payload{"wishlist": view})
	}
}

func Clear(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Clear(r.Context(), owner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Wishlist cleared successfully", nil)
	}
}

// MoveToCart adds a wishlisted product to the cart and drops it from the wishlist.
func MoveToCart(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var payload moveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := actor.OptionalUUID(payload.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.MoveToCart(r.Context(), owner, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Product moved to cart", responses.Payload{"cart": view, "expiresAt": view.ExpiresAt})
	}
}
