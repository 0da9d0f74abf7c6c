package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem snapshots one routed line item, with the unit price the
// selected link carried at planning time. Position preserves the encounter
// order of line items within the incoming order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null"`
	Position        int             `gorm:"column:position;not null"`
	ProductID       string          `gorm:"column:product_id;not null"`
	SKU             string          `gorm:"column:sku;not null"`
	Title           string          `gorm:"column:title;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
