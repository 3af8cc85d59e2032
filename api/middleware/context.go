package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/pkg/enums"
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

// TokenFromContext returns the jti and expiry of the presented access token.
func TokenFromContext(ctx context.Context) (string, time.Time) {
	if ctx == nil {
		return "", time.Time{}
	}
	jti, _ := ctx.Value(ctxTokenID).(string)
	exp, _ := ctx.Value(ctxTokenExpiry).(time.Time)
	return jti, exp
}

// ActorFromContext builds the ledger actor from the authenticated claims. An
// unauthenticated context yields the zero actor, which services reject.
func ActorFromContext(ctx context.Context) transfer.Actor {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return transfer.Actor{}
	}
	return transfer.Actor{UserID: id, Role: enums.UserRole(RoleFromContext(ctx))}
}

// WithActor seeds the context as Auth would. Used by tests and internal callers.
func WithActor(ctx context.Context, userID string, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, string(role))
}
