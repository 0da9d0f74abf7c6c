package suppliers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/repo"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

// Repository handles supplier persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to supplier operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new supplier row.
func (r *Repository) Create(ctx context.Context, dto CreateSupplierDTO) (*models.Supplier, error) {
	supplier := dto.ToModel()
	if err := r.DB(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// FindByID loads a supplier by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.DB(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListByShop returns a cursor page of the shop's suppliers, newest first.
func (r *Repository) ListByShop(ctx context.Context, shop string, params pagination.Params) ([]models.Supplier, error) {
	query := r.DB(ctx).
		Where("shop = ?", shop).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var suppliers []models.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Update saves the provided supplier.
func (r *Repository) Update(ctx context.Context, supplier *models.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("supplier is required")
	}
	return r.DB(ctx).Save(supplier).Error
}

// CountLinks returns how many product links reference the supplier.
func (r *Repository) CountLinks(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ProductSupplierLink{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

// Delete removes the supplier row. Callers check link references first.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Supplier{}, "id = ?", id).Error
}
