package purchaseorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
	"github.com/cycle3/supplysync-backend/pkg/outbox/payloads"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type stubPORepo struct {
	po      *models.PurchaseOrder
	orders  []models.PurchaseOrder
	err     error
	updated []*models.PurchaseOrder
}

func (s *stubPORepo) FindByPONumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.po == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.po, nil
}

func (s *stubPORepo) ListByStatus(ctx context.Context, shop string, status enums.PurchaseOrderStatus, params pagination.Params) ([]models.PurchaseOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

func (s *stubPORepo) UpdateTx(tx *gorm.DB, po *models.PurchaseOrder) error {
	s.updated = append(s.updated, po)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn((*gorm.DB)(nil))
}

type stubEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func pendingPO() *models.PurchaseOrder {
	return &models.PurchaseOrder{
		ID:             uuid.New(),
		PONumber:       "PO-1001-abcd",
		Shop:           "demo.myshopify.com",
		SupplierID:     uuid.New(),
		OrderReference: "1001",
		Status:         enums.PurchaseOrderStatusPendingApproval,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, stubTxRunner{}, &stubEmitter{}); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewService(&stubPORepo{}, nil, &stubEmitter{}); err == nil {
		t.Fatal("expected error without tx runner")
	}
	if _, err := NewService(&stubPORepo{}, stubTxRunner{}, nil); err == nil {
		t.Fatal("expected error without emitter")
	}
}

func TestServiceApproveSuccess(t *testing.T) {
	po := pendingPO()
	repo := &stubPORepo{po: po}
	emitter := &stubEmitter{}
	svc, err := NewService(repo, stubTxRunner{}, emitter)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Approve(context.Background(), po.PONumber, "ops@demo.com")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if dto.Status != enums.PurchaseOrderStatusApproved {
		t.Fatalf("expected approved, got %s", dto.Status)
	}
	if dto.ApprovedBy == nil || *dto.ApprovedBy != "ops@demo.com" {
		t.Fatalf("approver not recorded: %+v", dto)
	}
	if dto.ApprovedAt == nil {
		t.Fatal("approved_at not recorded")
	}
	if len(repo.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updated))
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventPurchaseOrderApproved {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.PurchaseOrderApprovedEvent)
	if !ok {
		t.Fatalf("unexpected payload %T", event.Data)
	}
	if payload.PONumber != po.PONumber || payload.ApprovedBy != "ops@demo.com" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestServiceApproveRejectsNonPending(t *testing.T) {
	po := pendingPO()
	po.Status = enums.PurchaseOrderStatusApproved
	svc, err := NewService(&stubPORepo{po: po}, stubTxRunner{}, &stubEmitter{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Approve(context.Background(), po.PONumber, "ops@demo.com")
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", gotErr)
	}
}

func TestServiceApproveRequiresApprover(t *testing.T) {
	svc, err := NewService(&stubPORepo{po: pendingPO()}, stubTxRunner{}, &stubEmitter{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Approve(context.Background(), "PO-1001-abcd", "   ")
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestServiceApproveNotFound(t *testing.T) {
	svc, err := NewService(&stubPORepo{}, stubTxRunner{}, &stubEmitter{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Approve(context.Background(), "PO-missing", "ops@demo.com")
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", gotErr)
	}
}

func TestServiceListByStatusValidates(t *testing.T) {
	svc, err := NewService(&stubPORepo{}, stubTxRunner{}, &stubEmitter{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, _, gotErr := svc.ListByStatus(context.Background(), "", enums.PurchaseOrderStatusApproved, pagination.Params{}); gotErr == nil {
		t.Fatal("expected shop validation error")
	}
	if _, _, gotErr := svc.ListByStatus(context.Background(), "demo.myshopify.com", enums.PurchaseOrderStatus("bogus"), pagination.Params{}); gotErr == nil {
		t.Fatal("expected status validation error")
	}
}
