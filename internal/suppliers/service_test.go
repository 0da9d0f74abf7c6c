package suppliers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type stubSupplierRepo struct {
	supplier  *models.Supplier
	suppliers []models.Supplier
	linkCount int64
	err       error

	createFn func(ctx context.Context, dto CreateSupplierDTO) (*models.Supplier, error)
	deleted  []uuid.UUID
}

func (s *stubSupplierRepo) Create(ctx context.Context, dto CreateSupplierDTO) (*models.Supplier, error) {
	if s.createFn != nil {
		return s.createFn(ctx, dto)
	}
	if s.err != nil {
		return nil, s.err
	}
	supplier := dto.ToModel()
	supplier.ID = uuid.New()
	return supplier, nil
}

func (s *stubSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.supplier == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.supplier, nil
}

func (s *stubSupplierRepo) ListByShop(ctx context.Context, shop string, params pagination.Params) ([]models.Supplier, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.suppliers, nil
}

func (s *stubSupplierRepo) Update(ctx context.Context, supplier *models.Supplier) error {
	return s.err
}

func (s *stubSupplierRepo) CountLinks(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	return s.linkCount, nil
}

func (s *stubSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func baseSupplier() *models.Supplier {
	return &models.Supplier{
		ID:           uuid.New(),
		Shop:         "demo.myshopify.com",
		Name:         "Acme Wholesale",
		Email:        "orders@acme.test",
		LeadTimeDays: 5,
		Status:       enums.SupplierStatusActive,
		Channel:      enums.SupplierChannelEmail,
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc, err := NewService(&stubSupplierRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []CreateSupplierDTO{
		{Name: "Acme"},
		{Shop: "demo.myshopify.com"},
		{Shop: "demo.myshopify.com", Name: "Acme", LeadTimeDays: -1},
	}
	for i, dto := range cases {
		if _, err := svc.Create(context.Background(), dto); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation code, got %v", i, err)
		}
	}
}

func TestServiceCreateSuccess(t *testing.T) {
	svc, err := NewService(&stubSupplierRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), CreateSupplierDTO{
		Shop:         "demo.myshopify.com",
		Name:         "  Acme Wholesale  ",
		Email:        "orders@acme.test",
		LeadTimeDays: 3,
	})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if dto.Name != "Acme Wholesale" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.Status != enums.SupplierStatusActive {
		t.Fatalf("expected default status active, got %s", dto.Status)
	}
	if dto.Channel != enums.SupplierChannelEmail {
		t.Fatalf("expected default channel email, got %s", dto.Channel)
	}
}

func TestServiceGetByIDNotFound(t *testing.T) {
	svc, err := NewService(&stubSupplierRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.GetByID(context.Background(), uuid.New())
	if gotErr == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", gotErr)
	}
}

func TestServiceGetByIDDependencyError(t *testing.T) {
	svc, err := NewService(&stubSupplierRepo{err: errors.New("boom")})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", gotErr)
	}
}

func TestServiceUpdateAppliesFields(t *testing.T) {
	supplier := baseSupplier()
	svc, err := NewService(&stubSupplierRepo{supplier: supplier})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "New Name"
	lead := 9
	status := enums.SupplierStatusInactive
	dto, err := svc.Update(context.Background(), supplier.ID, UpdateSupplierInput{
		Name:         &name,
		LeadTimeDays: &lead,
		Status:       &status,
	})
	if err != nil {
		t.Fatalf("update supplier: %v", err)
	}
	if dto.Name != name || dto.LeadTimeDays != lead || dto.Status != status {
		t.Fatalf("fields not applied: %+v", dto)
	}
}

func TestServiceUpdateRejectsInvalidStatus(t *testing.T) {
	supplier := baseSupplier()
	svc, err := NewService(&stubSupplierRepo{supplier: supplier})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	bad := enums.SupplierStatus("bogus")
	_, gotErr := svc.Update(context.Background(), supplier.ID, UpdateSupplierInput{Status: &bad})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestServiceDeleteBlockedWhileReferenced(t *testing.T) {
	supplier := baseSupplier()
	repo := &stubSupplierRepo{supplier: supplier, linkCount: 2}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	gotErr := svc.Delete(context.Background(), supplier.ID)
	if gotErr == nil {
		t.Fatal("expected conflict error")
	}
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", gotErr)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("expected no delete while still referenced")
	}
}

func TestServiceDeleteUnreferenced(t *testing.T) {
	supplier := baseSupplier()
	repo := &stubSupplierRepo{supplier: supplier}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Delete(context.Background(), supplier.ID); err != nil {
		t.Fatalf("delete supplier: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != supplier.ID {
		t.Fatalf("expected supplier deleted, got %v", repo.deleted)
	}
}
