package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/api/middleware"
	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/api/validators"
	"github.com/cycle3/supplysync-backend/internal/suppliers"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type supplierCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Email        string  `json:"email" validate:"required,email"`
	LeadTimeDays int     `json:"lead_time_days" validate:"min=0"`
	Status       *string `json:"status,omitempty"`
	Channel      *string `json:"channel,omitempty"`
}

type supplierUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	LeadTimeDays *int    `json:"lead_time_days,omitempty" validate:"omitempty,min=0"`
	Status       *string `json:"status,omitempty"`
	Channel      *string `json:"channel,omitempty"`
}

type supplierListResponse struct {
	Suppliers  []suppliers.SupplierDTO `json:"suppliers"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// SupplierCreate registers a supplier for the caller's shop.
func SupplierCreate(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		shop := middleware.ShopFromContext(r.Context())
		if shop == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing"))
			return
		}

		var payload supplierCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto := suppliers.CreateSupplierDTO{
			Shop:         shop,
			Name:         validators.SanitizeString(payload.Name, 200),
			Email:        validators.SanitizeString(payload.Email, 320),
			LeadTimeDays: payload.LeadTimeDays,
		}
		if payload.Status != nil {
			status := enums.SupplierStatus(*payload.Status)
			dto.Status = &status
		}
		if payload.Channel != nil {
			channel := enums.SupplierChannel(*payload.Channel)
			dto.Channel = &channel
		}

		created, err := svc.Create(r.Context(), dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SupplierGet returns one supplier owned by the caller's shop.
func SupplierGet(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplier, err := shopScopedSupplier(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// SupplierList pages through the shop's suppliers.
func SupplierList(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		shop := middleware.ShopFromContext(r.Context())
		if shop == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, next, err := svc.List(r.Context(), shop, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplierListResponse{Suppliers: page, NextCursor: next})
	}
}

// SupplierUpdate adjusts the supplier's mutable fields.
func SupplierUpdate(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplier, err := shopScopedSupplier(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload supplierUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := suppliers.UpdateSupplierInput{
			Name:         payload.Name,
			Email:        payload.Email,
			LeadTimeDays: payload.LeadTimeDays,
		}
		if payload.Name != nil {
			name := validators.SanitizeString(*payload.Name, 200)
			input.Name = &name
		}
		if payload.Email != nil {
			email := validators.SanitizeString(*payload.Email, 320)
			input.Email = &email
		}
		if payload.Status != nil {
			status := enums.SupplierStatus(*payload.Status)
			input.Status = &status
		}
		if payload.Channel != nil {
			channel := enums.SupplierChannel(*payload.Channel)
			input.Channel = &channel
		}

		updated, err := svc.Update(r.Context(), supplier.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// SupplierDelete removes a supplier with no product links.
func SupplierDelete(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		supplier, err := shopScopedSupplier(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), supplier.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// shopScopedSupplier resolves the {supplierID} path param and hides
// suppliers belonging to other shops behind a not-found.
func shopScopedSupplier(r *http.Request, svc suppliers.Service) (*suppliers.SupplierDTO, error) {
	shop := middleware.ShopFromContext(r.Context())
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing")
	}

	id, err := uuid.Parse(chi.URLParam(r, "supplierID"))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
	}

	supplier, err := svc.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if supplier.Shop != shop {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return supplier, nil
}
