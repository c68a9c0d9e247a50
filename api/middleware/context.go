package middleware

import (
	"context"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxTokenID     contextKey = "token_id"
	ctxTokenExpiry contextKey = "token_expiry"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// Actor returns the authenticated user id and role. ok is false when either
// is missing or malformed.
func Actor(ctx context.Context) (uuid.UUID, enums.UserRole, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", false
	}
	role, err := enums.ParseUserRole(RoleFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", false
	}
	return userID, role, true
}

// TokenFromContext returns the access token id and its expiry.
func TokenFromContext(ctx context.Context) (string, time.Time) {
	if ctx == nil {
		return "", time.Time{}
	}
	id, _ := ctx.Value(ctxTokenID).(string)
	exp, _ := ctx.Value(ctxTokenExpiry).(time.Time)
	return id, exp
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithToken injects the access token id and expiry into the context.
func WithToken(ctx context.Context, tokenID string, expiresAt time.Time) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxTokenID, tokenID)
	return context.WithValue(ctx, ctxTokenExpiry, expiresAt)
}
