package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// Document is the raw uploaded quote handed to the extractor.
type Document struct {
	SourceName string
	MediaType  string
	Content    []byte
}

// ExtractedLine is one row the external extractor pulled out of a document.
type ExtractedLine struct {
	SKU         string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// IngestQuoteDTO holds the metadata accompanying a quote upload.
type IngestQuoteDTO struct {
	SupplierID uuid.UUID
	ValidUntil *time.Time
}

// QuoteDTO exposes a quote and its extracted lines in API responses.
type QuoteDTO struct {
	ID         uuid.UUID         `json:"id"`
	SupplierID uuid.UUID         `json:"supplier_id"`
	SourceName string            `json:"source_name"`
	MediaType  string            `json:"media_type"`
	ValidUntil *time.Time        `json:"valid_until,omitempty"`
	Status     enums.QuoteStatus `json:"status"`
	FailReason *string           `json:"fail_reason,omitempty"`
	Lines      []QuoteLineDTO    `json:"lines"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// QuoteLineDTO is one extracted line in API responses.
type QuoteLineDTO struct {
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// FromModel maps the persisted quote into a DTO.
func FromModel(m *models.Quote) *QuoteDTO {
	if m == nil {
		return nil
	}
	dto := &QuoteDTO{
		ID:         m.ID,
		SupplierID: m.SupplierID,
		SourceName: m.SourceName,
		MediaType:  m.MediaType,
		ValidUntil: m.ValidUntil,
		Status:     m.Status,
		FailReason: m.FailReason,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	for _, line := range m.Lines {
		dto.Lines = append(dto.Lines, QuoteLineDTO{
			SKU:         line.SKU,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return dto
}
