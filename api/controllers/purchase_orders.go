package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cycle3/supplysync-backend/api/middleware"
	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/api/validators"
	"github.com/cycle3/supplysync-backend/internal/purchaseorders"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type purchaseOrderListResponse struct {
	PurchaseOrders []purchaseorders.PurchaseOrderDTO `json:"purchase_orders"`
	NextCursor     string                            `json:"next_cursor,omitempty"`
}

type purchaseOrderApproveRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required,min=1,max=200"`
}

// PurchaseOrderList pages through the shop's purchase orders by status.
func PurchaseOrderList(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		shop := middleware.ShopFromContext(r.Context())
		if shop == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing"))
			return
		}

		rawStatus := strings.TrimSpace(r.URL.Query().Get("status"))
		if rawStatus == "" {
			rawStatus = string(enums.PurchaseOrderStatusPendingApproval)
		}
		status, err := enums.ParsePurchaseOrderStatus(rawStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, next, err := svc.ListByStatus(r.Context(), shop, status, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchaseOrderListResponse{PurchaseOrders: page, NextCursor: next})
	}
}

// PurchaseOrderGet returns one purchase order by its PO number.
func PurchaseOrderGet(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		po, err := shopScopedPurchaseOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

// PurchaseOrderApprove moves a pending purchase order to approved.
func PurchaseOrderApprove(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		po, err := shopScopedPurchaseOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseOrderApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, err := svc.Approve(r.Context(), po.PONumber, payload.ApprovedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, approved)
	}
}

// shopScopedPurchaseOrder resolves the {poNumber} path param and hides other
// shops' purchase orders behind a not-found.
func shopScopedPurchaseOrder(r *http.Request, svc purchaseorders.Service) (*purchaseorders.PurchaseOrderDTO, error) {
	shop := middleware.ShopFromContext(r.Context())
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing")
	}

	poNumber := strings.TrimSpace(chi.URLParam(r, "poNumber"))
	if poNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "po number is required")
	}

	po, err := svc.GetByPONumber(r.Context(), poNumber)
	if err != nil {
		return nil, err
	}
	if po.Shop != shop {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
	}
	return po, nil
}
