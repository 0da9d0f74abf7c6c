package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
	"github.com/cycle3/supplysync-backend/pkg/outbox/payloads"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type purchaseOrderRepository interface {
	FindByPONumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error)
	ListByStatus(ctx context.Context, shop string, status enums.PurchaseOrderStatus, params pagination.Params) ([]models.PurchaseOrder, error)
	UpdateTx(tx *gorm.DB, po *models.PurchaseOrder) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes purchase order reads and the approval transition.
type Service interface {
	GetByPONumber(ctx context.Context, poNumber string) (*PurchaseOrderDTO, error)
	ListByStatus(ctx context.Context, shop string, status enums.PurchaseOrderStatus, params pagination.Params) ([]PurchaseOrderDTO, string, error)
	Approve(ctx context.Context, poNumber, approver string) (*PurchaseOrderDTO, error)
}

type service struct {
	repo   purchaseOrderRepository
	tx     txRunner
	events eventEmitter
	now    func() time.Time
}

// NewService builds a purchase order service with the provided dependencies.
func NewService(repo purchaseOrderRepository, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tx: tx, events: events, now: time.Now}, nil
}

func (s *service) GetByPONumber(ctx context.Context, poNumber string) (*PurchaseOrderDTO, error) {
	po, err := s.repo.FindByPONumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return FromModel(po), nil
}

func (s *service) ListByStatus(ctx context.Context, shop string, status enums.PurchaseOrderStatus, params pagination.Params) ([]PurchaseOrderDTO, string, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	if !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase order status")
	}

	rows, err := s.repo.ListByStatus(ctx, shop, status, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]PurchaseOrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

// Approve moves a pending purchase order to approved and emits the approval
// event on the same transaction. Any other starting status is a state
// conflict; approval is the only transition owned here.
func (s *service) Approve(ctx context.Context, poNumber, approver string) (*PurchaseOrderDTO, error) {
	approver = strings.TrimSpace(approver)
	if approver == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver is required")
	}

	po, err := s.repo.FindByPONumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	if po.Status != enums.PurchaseOrderStatusPendingApproval {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("purchase order is %s, only pending_approval can be approved", po.Status))
	}

	approvedAt := s.now().UTC()
	po.Status = enums.PurchaseOrderStatusApproved
	po.ApprovedBy = &approver
	po.ApprovedAt = &approvedAt

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, po); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderApproved,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			Actor:         &outbox.ActorRef{Subject: approver, Shop: po.Shop},
			Data: payloads.PurchaseOrderApprovedEvent{
				PurchaseOrderID: po.ID,
				PONumber:        po.PONumber,
				SupplierID:      po.SupplierID,
				ApprovedBy:      approver,
				ApprovedAt:      approvedAt,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve purchase order")
	}
	return FromModel(po), nil
}
