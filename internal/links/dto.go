package links

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cycle3/supplysync-backend/internal/planner"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
)

// LinkDTO exposes a product supplier link in API responses.
type LinkDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    string          `json:"product_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	Priority     int             `json:"priority"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	StockLevel   int             `json:"stock_level"`
	MinimumOrder int             `json:"minimum_order"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// UpsertLinkDTO holds the writable fields of a link. Upserting the same
// (product, supplier) pair twice updates the existing row.
type UpsertLinkDTO struct {
	ProductID    string
	SupplierID   uuid.UUID
	Priority     int
	UnitPrice    decimal.Decimal
	StockLevel   int
	MinimumOrder *int
}

// FromModel maps the persisted link into a DTO.
func FromModel(m *models.ProductSupplierLink) *LinkDTO {
	if m == nil {
		return nil
	}
	return &LinkDTO{
		ID:           m.ID,
		ProductID:    m.ProductID,
		SupplierID:   m.SupplierID,
		Priority:     m.Priority,
		UnitPrice:    m.UnitPrice,
		StockLevel:   m.StockLevel,
		MinimumOrder: m.MinimumOrder,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PlannerLink converts a persisted link into the planner's input shape.
func PlannerLink(m models.ProductSupplierLink) planner.Link {
	return planner.Link{
		ID:           m.ID,
		ProductID:    m.ProductID,
		SupplierID:   m.SupplierID,
		Priority:     m.Priority,
		UnitPrice:    m.UnitPrice,
		StockLevel:   m.StockLevel,
		MinimumOrder: m.MinimumOrder,
		Version:      m.Version,
	}
}
