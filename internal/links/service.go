package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
)

type linkRepository interface {
	Upsert(ctx context.Context, dto UpsertLinkDTO) (*models.ProductSupplierLink, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductSupplierLink, error)
	ListForProduct(ctx context.Context, productID string) ([]models.ProductSupplierLink, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type supplierLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// Service exposes product supplier link operations.
type Service interface {
	Upsert(ctx context.Context, dto UpsertLinkDTO) (*LinkDTO, bool, error)
	ListForProduct(ctx context.Context, productID string) ([]LinkDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      linkRepository
	suppliers supplierLookup
}

// NewService builds a link service with the provided repositories.
func NewService(repo linkRepository, suppliers supplierLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("link repository required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier lookup required")
	}
	return &service{repo: repo, suppliers: suppliers}, nil
}

func (s *service) Upsert(ctx context.Context, dto UpsertLinkDTO) (*LinkDTO, bool, error) {
	dto.ProductID = strings.TrimSpace(dto.ProductID)
	if dto.ProductID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if dto.SupplierID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if dto.UnitPrice.IsNegative() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if dto.StockLevel < 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "stock level must not be negative")
	}
	if dto.MinimumOrder != nil && *dto.MinimumOrder < 1 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "minimum order must be at least 1")
	}

	if _, err := s.suppliers.FindByID(ctx, dto.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	link, created, err := s.repo.Upsert(ctx, dto)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert link")
	}
	return FromModel(link), created, nil
}

func (s *service) ListForProduct(ctx context.Context, productID string) ([]LinkDTO, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	rows, err := s.repo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list links")
	}

	dtos := make([]LinkDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "link not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load link")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete link")
	}
	return nil
}
