package quotes

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
)

// HistoryResolver maps supplier SKUs onto shop product ids using the SKU
// snapshots recorded on past purchase order items. A SKU the shop has never
// ordered resolves to nothing and the quote line is skipped at promotion.
type HistoryResolver struct {
	db *gorm.DB
}

func NewHistoryResolver(db *gorm.DB) *HistoryResolver {
	return &HistoryResolver{db: db}
}

func (r *HistoryResolver) ResolveSKU(ctx context.Context, sku string) (string, bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", false, nil
	}

	var item models.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("created_at DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return item.ProductID, true, nil
}
