package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type supplierRepository interface {
	Create(ctx context.Context, dto CreateSupplierDTO) (*models.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListByShop(ctx context.Context, shop string, params pagination.Params) ([]models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	CountLinks(ctx context.Context, supplierID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes supplier catalog operations.
type Service interface {
	Create(ctx context.Context, dto CreateSupplierDTO) (*SupplierDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*SupplierDTO, error)
	List(ctx context.Context, shop string, params pagination.Params) ([]SupplierDTO, string, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo supplierRepository
}

// NewService builds a supplier service with the provided repository.
func NewService(repo supplierRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, dto CreateSupplierDTO) (*SupplierDTO, error) {
	dto.Shop = strings.TrimSpace(dto.Shop)
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if dto.LeadTimeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time days must not be negative")
	}
	if dto.Status != nil && !dto.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier status")
	}
	if dto.Channel != nil && !dto.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier channel")
	}

	supplier, err := s.repo.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists for this shop")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) List(ctx context.Context, shop string, params pagination.Params) ([]SupplierDTO, string, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}

	rows, err := s.repo.ListByShop(ctx, shop, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		supplier.Name = name
	}
	if input.Email != nil {
		supplier.Email = strings.TrimSpace(*input.Email)
	}
	if input.LeadTimeDays != nil {
		if *input.LeadTimeDays < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time days must not be negative")
		}
		supplier.LeadTimeDays = *input.LeadTimeDays
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier status")
		}
		supplier.Status = *input.Status
	}
	if input.Channel != nil {
		if !input.Channel.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier channel")
		}
		supplier.Channel = *input.Channel
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists for this shop")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return FromModel(supplier), nil
}

// Delete removes a supplier unless product links still reference it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	count, err := s.repo.CountLinks(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count supplier links")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "supplier is still assigned to products")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	return nil
}
