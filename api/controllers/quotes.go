package controllers

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/api/responses"
	"github.com/cycle3/supplysync-backend/api/validators"
	"github.com/cycle3/supplysync-backend/internal/quotes"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

type quoteIngestRequest struct {
	SupplierID string     `json:"supplier_id" validate:"required,uuid4"`
	SourceName string     `json:"source_name" validate:"required,min=1,max=500"`
	MediaType  string     `json:"media_type" validate:"required,min=1,max=100"`
	Content    string     `json:"content" validate:"required"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// QuoteIngest accepts an uploaded quote document and runs extraction.
func QuoteIngest(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quoteIngestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := uuid.Parse(payload.SupplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}

		content, err := base64.StdEncoding.DecodeString(payload.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "document content must be base64"))
			return
		}

		quote, err := svc.Ingest(r.Context(), quotes.IngestQuoteDTO{
			SupplierID: supplierID,
			ValidUntil: payload.ValidUntil,
		}, quotes.Document{
			SourceName: payload.SourceName,
			MediaType:  payload.MediaType,
			Content:    content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

// QuoteGet returns a quote with its extracted lines.
func QuoteGet(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id"))
			return
		}

		quote, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// QuotePromote upserts candidate supplier links from a processed quote.
func QuotePromote(svc quotes.Service, resolver quotes.ProductResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id"))
			return
		}

		result, err := svc.PromoteToLinks(r.Context(), id, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type quoteListResponse struct {
	Quotes []quotes.QuoteDTO `json:"quotes"`
}

// QuoteListBySupplier returns a supplier's quotes, newest first.
func QuoteListBySupplier(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		supplierID, err := uuid.Parse(chi.URLParam(r, "supplierID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}

		listed, err := svc.ListBySupplier(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quoteListResponse{Quotes: listed})
	}
}
