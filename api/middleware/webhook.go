package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/internal/webhooks/shopify"
	"github.com/cycle3/supplysync-backend/pkg/config"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

// ShopifyWebhook verifies the delivery's HMAC signature before the receiver
// sees it. The body is buffered and restored for downstream handlers.
func ShopifyWebhook(cfg config.ShopifyConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook body"))
				return
			}

			header := r.Header.Get(shopify.SignatureHeader)
			if !shopify.VerifySignature(payload, cfg.WebhookSecret, header) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(payload))
			next.ServeHTTP(w, r)
		})
	}
}
