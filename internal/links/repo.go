package links

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/repo"
	"github.com/cycle3/supplysync-backend/pkg/db"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
)

// ErrVersionConflict is returned when a versioned stock write loses the race
// against a concurrent writer.
var ErrVersionConflict = errors.New("link version conflict")

// Repository handles product supplier link persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to link operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Upsert creates the link or, when the (product, supplier) pair already
// exists, updates it in place. The bool reports whether a new row was
// created.
func (r *Repository) Upsert(ctx context.Context, dto UpsertLinkDTO) (*models.ProductSupplierLink, bool, error) {
	existing, err := r.findByPair(ctx, dto.ProductID, dto.SupplierID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return r.applyUpdate(ctx, existing, dto)
	}

	link := &models.ProductSupplierLink{
		ProductID:  dto.ProductID,
		SupplierID: dto.SupplierID,
		Priority:   dto.Priority,
		UnitPrice:  dto.UnitPrice,
		StockLevel: dto.StockLevel,
		Version:    1,
	}
	if dto.MinimumOrder != nil {
		link.MinimumOrder = *dto.MinimumOrder
	} else {
		link.MinimumOrder = 1
	}
	link.ID = uuid.New()

	if err := r.DB(ctx).Create(link).Error; err != nil {
		// A concurrent insert of the same pair turns this into an update.
		if db.IsUniqueViolation(err, "") {
			existing, findErr := r.findByPair(ctx, dto.ProductID, dto.SupplierID)
			if findErr != nil {
				return nil, false, findErr
			}
			return r.applyUpdate(ctx, existing, dto)
		}
		return nil, false, err
	}
	return link, true, nil
}

func (r *Repository) applyUpdate(ctx context.Context, link *models.ProductSupplierLink, dto UpsertLinkDTO) (*models.ProductSupplierLink, bool, error) {
	link.Priority = dto.Priority
	link.UnitPrice = dto.UnitPrice
	link.StockLevel = dto.StockLevel
	if dto.MinimumOrder != nil {
		link.MinimumOrder = *dto.MinimumOrder
	}
	link.Version++
	if err := r.DB(ctx).Save(link).Error; err != nil {
		return nil, false, err
	}
	return link, false, nil
}

func (r *Repository) findByPair(ctx context.Context, productID string, supplierID uuid.UUID) (*models.ProductSupplierLink, error) {
	var link models.ProductSupplierLink
	err := r.DB(ctx).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByID loads a link by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductSupplierLink, error) {
	var link models.ProductSupplierLink
	if err := r.DB(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// ListForProduct returns the product's links ordered by priority then id.
func (r *Repository) ListForProduct(ctx context.Context, productID string) ([]models.ProductSupplierLink, error) {
	var links []models.ProductSupplierLink
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("priority ASC").
		Order("id ASC").
		Find(&links).Error
	return links, err
}

// ListForProducts returns all links for the given products in one query.
func (r *Repository) ListForProducts(ctx context.Context, productIDs []string) ([]models.ProductSupplierLink, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var links []models.ProductSupplierLink
	err := r.DB(ctx).
		Where("product_id IN ?", productIDs).
		Order("priority ASC").
		Order("id ASC").
		Find(&links).Error
	return links, err
}

// UpdateStockTx writes a new stock level guarded by the expected version.
// The row's version is bumped on success; a stale expected version returns
// ErrVersionConflict so the caller can reload and retry.
func (r *Repository) UpdateStockTx(tx *gorm.DB, id uuid.UUID, stockLevel int, expectedVersion int64) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	result := tx.Model(&models.ProductSupplierLink{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"stock_level": stockLevel,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a link by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.ProductSupplierLink{}, "id = ?", id).Error
}
