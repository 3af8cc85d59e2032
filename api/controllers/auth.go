package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/drinkroute/distribution-backend/api/middleware"
	"github.com/drinkroute/distribution-backend/api/responses"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type tokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// AuthLogout revokes the presented access token until it would have expired.
func AuthLogout(revoker tokenRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revoker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}
		jti, expiresAt := middleware.TokenFromContext(r.Context())
		if jti == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token id"))
			return
		}
		if err := revoker.Revoke(r.Context(), jti, expiresAt); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke token"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
