package purchaseorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cycle3/supplysync-backend/internal/planner"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// PurchaseOrderDTO exposes a purchase order in API responses.
type PurchaseOrderDTO struct {
	ID             uuid.UUID                 `json:"id"`
	PONumber       string                    `json:"po_number"`
	Shop           string                    `json:"shop"`
	SupplierID     uuid.UUID                 `json:"supplier_id"`
	OrderReference string                    `json:"order_reference"`
	Status         enums.PurchaseOrderStatus `json:"status"`
	ApprovedBy     *string                   `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time                `json:"approved_at,omitempty"`
	Items          []PurchaseOrderItemDTO    `json:"items"`
	Total          decimal.Decimal           `json:"total"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// PurchaseOrderItemDTO is one snapshotted line within a purchase order.
type PurchaseOrderItemDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// FromModel maps the persisted purchase order into a DTO. The total is
// rounded to two decimal places at this presentation boundary only.
func FromModel(m *models.PurchaseOrder) *PurchaseOrderDTO {
	if m == nil {
		return nil
	}
	dto := &PurchaseOrderDTO{
		ID:             m.ID,
		PONumber:       m.PONumber,
		Shop:           m.Shop,
		SupplierID:     m.SupplierID,
		OrderReference: m.OrderReference,
		Status:         m.Status,
		ApprovedBy:     m.ApprovedBy,
		ApprovedAt:     m.ApprovedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	total := decimal.Zero
	for _, item := range m.Items {
		dto.Items = append(dto.Items, PurchaseOrderItemDTO{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	dto.Total = total.Round(2)
	return dto
}

// ModelFromPlanned converts a planner draft into the persistence shape.
func ModelFromPlanned(shop, orderReference string, planned planner.PlannedOrder) *models.PurchaseOrder {
	po := &models.PurchaseOrder{
		ID:             uuid.New(),
		PONumber:       planned.PONumber,
		Shop:           shop,
		SupplierID:     planned.SupplierID,
		OrderReference: orderReference,
		Status:         planned.Status,
	}
	for i, item := range planned.Items {
		po.Items = append(po.Items, models.PurchaseOrderItem{
			ID:              uuid.New(),
			PurchaseOrderID: po.ID,
			Position:        i,
			ProductID:       item.ProductID,
			SKU:             item.SKU,
			Title:           item.Title,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
		})
	}
	return po
}
