package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// PurchaseOrder groups the line items routed to one supplier for one
// incoming order. Created exclusively by the fulfillment planner; after
// creation only the approval workflow mutates it.
type PurchaseOrder struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PONumber       string                    `gorm:"column:po_number;not null;uniqueIndex:ux_purchase_orders_po_number"`
	Shop           string                    `gorm:"column:shop;not null"`
	SupplierID     uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null"`
	OrderReference string                    `gorm:"column:order_reference;not null"`
	Status         enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'pending_approval'"`
	ApprovedBy     *string                   `gorm:"column:approved_by"`
	ApprovedAt     *time.Time                `gorm:"column:approved_at"`
	Items          []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Supplier       *Supplier                 `gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
