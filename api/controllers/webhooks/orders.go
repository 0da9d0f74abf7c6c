package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/internal/fulfillment"
	"github.com/cycle3/supplysync-backend/internal/planner"
	"github.com/cycle3/supplysync-backend/internal/webhooks/shopify"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

type OrderPlannerService interface {
	ProcessOrder(ctx context.Context, input fulfillment.OrderInput) (*fulfillment.Outcome, error)
}

type orderCreatedResponse struct {
	Deduplicated   bool                        `json:"deduplicated"`
	PurchaseOrders []string                    `json:"purchase_orders"`
	Unfulfillable  []planner.UnfulfillableItem `json:"unfulfillable,omitempty"`
	LineItemErrors []string                    `json:"line_item_errors,omitempty"`
}

// OrderCreated receives the platform's orders/create webhook. Signature
// verification happens in middleware before this handler runs.
func OrderCreated(svc OrderPlannerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		shop := strings.TrimSpace(r.Header.Get(shopify.ShopHeader))
		if shop == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header missing"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook body"))
			return
		}

		order, err := shopify.ParseOrderCreated(body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		outcome, err := svc.ProcessOrder(ctx, fulfillment.OrderInput{
			Shop:      shop,
			WebhookID: r.Header.Get(shopify.WebhookIDHeader),
			Order:     order,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := orderCreatedResponse{
			Deduplicated:   outcome.Deduplicated,
			PurchaseOrders: make([]string, 0, len(outcome.Orders)),
			Unfulfillable:  outcome.Unfulfillable,
		}
		for _, po := range outcome.Orders {
			resp.PurchaseOrders = append(resp.PurchaseOrders, po.PONumber)
		}
		if outcome.ItemErrors != nil {
			resp.LineItemErrors = strings.Split(outcome.ItemErrors.Error(), "; ")
		}
		responses.WriteSuccess(w, resp)
	}
}
