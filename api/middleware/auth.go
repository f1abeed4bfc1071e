package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/boiler360/storefront-backend/api/responses"
	pkgAuth "github.com/boiler360/storefront-backend/pkg/auth"
	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// Auth validates a bearer token and seeds the request context with the
// account identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.AccountID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			ctx := WithAccount(r.Context(), claims.AccountID, claims.IsAdmin)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, claims.AccountID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountChecker resolves an account id to a live row.
type AccountChecker interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// RequireLiveAccount rejects tokens whose account no longer exists. The
// stateless token check in Auth cannot see deletions, so routes that write
// rows keyed by the account id run this after Auth to answer 401 instead of
// tripping a foreign key.
func RequireLiveAccount(accounts AccountChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, err := accounts.GetAccount(ctx, AccountIDFromContext(ctx)); err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					err = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a subtree to admin accounts. It must run after Auth.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
