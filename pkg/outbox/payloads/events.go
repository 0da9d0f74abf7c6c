package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderCreatedEvent signals that planning produced a new draft PO.
type PurchaseOrderCreatedEvent struct {
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	PONumber        string          `json:"po_number"`
	SupplierID      uuid.UUID       `json:"supplier_id"`
	OrderReference  string          `json:"order_reference"`
	Shop            string          `json:"shop"`
	ItemCount       int             `json:"item_count"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

// PurchaseOrderApprovedEvent is emitted when a merchant approves a pending PO.
type PurchaseOrderApprovedEvent struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	PONumber        string    `json:"po_number"`
	SupplierID      uuid.UUID `json:"supplier_id"`
	ApprovedBy      string    `json:"approved_by"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// OrderUnfulfillableEvent reports line items no supplier could cover.
type OrderUnfulfillableEvent struct {
	OrderReference string   `json:"order_reference"`
	Shop           string   `json:"shop"`
	ProductIDs     []string `json:"product_ids"`
}

// QuoteProcessedEvent is emitted once a supplier quote has been extracted.
type QuoteProcessedEvent struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	SourceName string    `json:"source_name"`
	LineCount  int       `json:"line_count"`
}
