package purchaseorders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/repo"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

// Repository handles purchase order persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to purchase order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// SaveTx persists the purchase orders and their items on the caller's
// transaction so they commit together with the stock decrements.
func (r *Repository) SaveTx(tx *gorm.DB, orders []*models.PurchaseOrder) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	for _, po := range orders {
		if po == nil {
			return fmt.Errorf("purchase order is required")
		}
		if err := tx.Create(po).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByPONumber loads a purchase order with its items.
func (r *Repository) FindByPONumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("po_number = ?", poNumber).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// ListByStatus returns a cursor page of the shop's purchase orders in the
// given status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, shop string, status enums.PurchaseOrderStatus, params pagination.Params) ([]models.PurchaseOrder, error) {
	query := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("shop = ? AND status = ?", shop, status).
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

	var orders []models.PurchaseOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update saves the provided purchase order header.
func (r *Repository) Update(ctx context.Context, po *models.PurchaseOrder) error {
	if po == nil {
		return fmt.Errorf("purchase order is required")
	}
	return r.DB(ctx).Omit("Items").Save(po).Error
}

// UpdateTx saves the purchase order header on the caller's transaction.
func (r *Repository) UpdateTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if po == nil {
		return fmt.Errorf("purchase order is required")
	}
	return tx.Omit("Items").Save(po).Error
}
