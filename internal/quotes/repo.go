package quotes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/repo"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
)

// Repository handles quote persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to quote operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new quote row in the received state.
func (r *Repository) Create(ctx context.Context, quote *models.Quote) error {
	if quote == nil {
		return fmt.Errorf("quote is required")
	}
	return r.DB(ctx).Create(quote).Error
}

// FindByID loads a quote with its extracted lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListBySupplier returns the supplier's quotes, newest first.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Quote, error) {
	var rows []models.Quote
	err := r.DB(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// MarkProcessedTx stores the extracted lines and flips the quote to processed
// on the caller's transaction.
func (r *Repository) MarkProcessedTx(tx *gorm.DB, quoteID uuid.UUID, lines []models.QuoteLine) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
	}
	return tx.Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Updates(map[string]any{
			"status":      enums.QuoteStatusProcessed,
			"fail_reason": nil,
		}).Error
}

// MarkFailed records an extraction failure.
func (r *Repository) MarkFailed(ctx context.Context, quoteID uuid.UUID, reason string) error {
	return r.DB(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Updates(map[string]any{
			"status":      enums.QuoteStatusFailed,
			"fail_reason": reason,
		}).Error
}
