package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// Supplier is a vendor registered by the merchant. Suppliers are never
// hard-deleted while a ProductSupplierLink references them.
type Supplier struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Shop         string                `gorm:"column:shop;not null;uniqueIndex:ux_suppliers_shop_name"`
	Name         string                `gorm:"column:name;not null;uniqueIndex:ux_suppliers_shop_name"`
	Email        string                `gorm:"column:email;not null"`
	LeadTimeDays int                   `gorm:"column:lead_time_days;not null;default:0"`
	Status       enums.SupplierStatus  `gorm:"column:status;type:text;not null;default:'active'"`
	Channel      enums.SupplierChannel `gorm:"column:channel;type:text;not null;default:'email'"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
