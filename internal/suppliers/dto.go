package suppliers

import (
	"time"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// SupplierDTO exposes supplier data in API responses.
type SupplierDTO struct {
	ID           uuid.UUID             `json:"id"`
	Shop         string                `json:"shop"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	LeadTimeDays int                   `json:"lead_time_days"`
	Status       enums.SupplierStatus  `json:"status"`
	Channel      enums.SupplierChannel `json:"channel"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CreateSupplierDTO holds creation-time data for a new supplier.
type CreateSupplierDTO struct {
	Shop         string
	Name         string
	Email        string
	LeadTimeDays int
	Status       *enums.SupplierStatus
	Channel      *enums.SupplierChannel
}

// UpdateSupplierInput captures the allowed supplier fields for mutation.
type UpdateSupplierInput struct {
	Name         *string
	Email        *string
	LeadTimeDays *int
	Status       *enums.SupplierStatus
	Channel      *enums.SupplierChannel
}

// FromModel maps the persisted supplier into a DTO.
func FromModel(m *models.Supplier) *SupplierDTO {
	if m == nil {
		return nil
	}
	return &SupplierDTO{
		ID:           m.ID,
		Shop:         m.Shop,
		Name:         m.Name,
		Email:        m.Email,
		LeadTimeDays: m.LeadTimeDays,
		Status:       m.Status,
		Channel:      m.Channel,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateSupplierDTO) ToModel() *models.Supplier {
	model := &models.Supplier{
		Shop:         c.Shop,
		Name:         c.Name,
		Email:        c.Email,
		LeadTimeDays: c.LeadTimeDays,
		Status:       enums.SupplierStatusActive,
		Channel:      enums.SupplierChannelEmail,
	}
	if c.Status != nil {
		model.Status = *c.Status
	}
	if c.Channel != nil {
		model.Channel = *c.Channel
	}
	return model
}
