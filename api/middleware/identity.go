package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/api/responses"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
)

const (
	userIDHeader = "X-User-Id"
	roleHeader   = "X-User-Role"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// Identity trusts the authenticated identity the API gateway forwards in
// headers. Requests arriving without them are anonymous and rejected by
// RequireRole further down the chain.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := r.Header.Get(userIDHeader)
			role := r.Header.Get(roleHeader)
			if userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithField(ctx, "user_id", userID)
				}
			}
			if role != "" {
				ctx = WithRole(ctx, role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose forwarded identity is missing or holds a
// different role. Admins pass every role gate.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity"))
				return
			}

			actual := RoleFromContext(ctx)
			if actual != role && actual != RoleAdmin {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
