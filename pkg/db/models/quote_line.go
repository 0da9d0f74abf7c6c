package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteLine is one extracted row from a supplier quote document.
type QuoteLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID     uuid.UUID       `gorm:"column:quote_id;type:uuid;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
