package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSupplierLink assigns a supplier to a platform product. At most one
// link exists per (product_id, supplier_id); a duplicate create updates the
// existing row. Version supports optimistic concurrency on stock writes.
type ProductSupplierLink struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    string          `gorm:"column:product_id;not null;uniqueIndex:ux_links_product_supplier"`
	SupplierID   uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:ux_links_product_supplier"`
	Priority     int             `gorm:"column:priority;not null;default:0"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null"`
	StockLevel   int             `gorm:"column:stock_level;not null;default:0"`
	MinimumOrder int             `gorm:"column:minimum_order;not null;default:1"`
	Version      int64           `gorm:"column:version;not null;default:1"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
