package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/api/validators"
	"github.com/cycle3/supplysync-backend/internal/links"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

type linkUpsertRequest struct {
	Priority     int    `json:"priority" validate:"min=0"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	StockLevel   int    `json:"stock_level" validate:"min=0"`
	MinimumOrder *int   `json:"minimum_order,omitempty" validate:"omitempty,min=1"`
}

type linkListResponse struct {
	Links []links.LinkDTO `json:"links"`
}

type linkUpsertResponse struct {
	Link    *links.LinkDTO `json:"link"`
	Created bool           `json:"created"`
}

// LinkUpsert assigns a supplier to a product, updating the existing
// assignment when the pair is already linked.
func LinkUpsert(svc links.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "link service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productID"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		supplierID, err := uuid.Parse(chi.URLParam(r, "supplierID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}

		var payload linkUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitPrice, err := decimal.NewFromString(payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
			return
		}

		link, created, err := svc.Upsert(r.Context(), links.UpsertLinkDTO{
			ProductID:    productID,
			SupplierID:   supplierID,
			Priority:     payload.Priority,
			UnitPrice:    unitPrice,
			StockLevel:   payload.StockLevel,
			MinimumOrder: payload.MinimumOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, linkUpsertResponse{Link: link, Created: created})
	}
}

// LinkList returns a product's supplier assignments in planning order.
func LinkList(svc links.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "link service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productID"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		list, err := svc.ListForProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, linkListResponse{Links: list})
	}
}

// LinkDelete removes a supplier assignment.
func LinkDelete(svc links.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "link service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "linkID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid link id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
