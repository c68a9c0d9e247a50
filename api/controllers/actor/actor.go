// Package actor turns the authenticated request context into domain callers.
package actor

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
)

func unauthenticated() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized, please login")
}

// Owner returns the cart owner for the request.
func Owner(r *http.Request) (cart.Owner, error) {
	userID, role, ok := middleware.Actor(r.Context())
	if !ok {
		return cart.Owner{}, unauthenticated()
	}
	return cart.Owner{UserID: userID, Role: role}, nil
}

// OrderActor returns the order caller for the request.
func OrderActor(r *http.Request) (orders.Actor, error) {
	userID, role, ok := middleware.Actor(r.Context())
	if !ok {
		return orders.Actor{}, unauthenticated()
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}

// PathUUID parses a uuid route parameter. A malformed id is reported as notFound
// so callers cannot probe for id formats.
func PathUUID(r *http.Request, param, notFound string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return id, nil
}

// OptionalUUID parses a body id. Empty input yields uuid.Nil so the service
// reports the missing field itself.
func OptionalUUID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s", field).WithDetails(map[string]string{field: "must be a valid id"})
	}
	return id, nil
}
