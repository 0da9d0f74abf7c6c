package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// Quote is an uploaded supplier quote document moving through ingestion.
// Extraction itself happens in an external collaborator; lines hold its
// output.
type Quote struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null"`
	SourceName string            `gorm:"column:source_name;not null"`
	MediaType  string            `gorm:"column:media_type;not null"`
	ValidUntil *time.Time        `gorm:"column:valid_until"`
	Status     enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'received'"`
	FailReason *string           `gorm:"column:fail_reason"`
	Lines      []QuoteLine       `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Supplier   *Supplier         `gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
