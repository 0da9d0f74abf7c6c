package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/api/validators"
	pkgAuth "github.com/cycle3/supplysync-backend/pkg/auth"
	"github.com/cycle3/supplysync-backend/pkg/config"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// merchant identity and shop domain.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := validators.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.MerchantID == uuid.Nil || claims.Shop == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token missing merchant identity"))
				return
			}

			ctx := WithMerchantID(r.Context(), claims.MerchantID)
			ctx = WithShop(ctx, claims.Shop)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"merchant_id": claims.MerchantID.String(),
					"shop":        claims.Shop,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
