package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/links"
	"github.com/cycle3/supplysync-backend/internal/planner"
	"github.com/cycle3/supplysync-backend/internal/purchaseorders"
	"github.com/cycle3/supplysync-backend/pkg/config"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/metrics"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
	"github.com/cycle3/supplysync-backend/pkg/outbox/payloads"
	"github.com/cycle3/supplysync-backend/pkg/redis"
)

const webhookDedupeScope = "order_webhook"

type linkStore interface {
	ListForProducts(ctx context.Context, productIDs []string) ([]models.ProductSupplierLink, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, stockLevel int, expectedVersion int64) error
}

type purchaseOrderWriter interface {
	SaveTx(tx *gorm.DB, orders []*models.PurchaseOrder) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Unlocker releases a held product lock set.
type Unlocker interface {
	Release(ctx context.Context) error
}

// ProductLocker serializes planning per product across concurrent orders.
type ProductLocker interface {
	AcquireProductLocks(ctx context.Context, productIDs []string, ttl, wait time.Duration) (Unlocker, error)
}

// RedisLocker adapts the redis client to the ProductLocker interface.
type RedisLocker struct {
	Client *redis.Client
}

func (l RedisLocker) AcquireProductLocks(ctx context.Context, productIDs []string, ttl, wait time.Duration) (Unlocker, error) {
	return l.Client.AcquireProductLocks(ctx, productIDs, ttl, wait)
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// OrderInput is one order-created delivery ready for planning.
type OrderInput struct {
	Shop      string
	WebhookID string
	Order     planner.Order
}

// Outcome reports what a ProcessOrder call produced.
type Outcome struct {
	Deduplicated  bool
	Orders        []purchaseorders.PurchaseOrderDTO
	Unfulfillable []planner.UnfulfillableItem
	// ItemErrors carries per-line-item rejections that did not stop the
	// rest of the order from being planned.
	ItemErrors error
}

// Service plans incoming orders and persists the result.
type Service interface {
	ProcessOrder(ctx context.Context, input OrderInput) (*Outcome, error)
}

type service struct {
	links   linkStore
	orders  purchaseOrderWriter
	tx      txRunner
	events  eventEmitter
	locker  ProductLocker
	dedupe  dedupeStore
	cfg     config.PlannerConfig
	logg    *logger.Logger
	metrics *metrics.PlannerMetrics
}

// NewService builds the fulfillment orchestrator. The metrics handle may be
// nil-valued; the dedupe store may be nil when webhook replay protection is
// handled upstream.
func NewService(
	linkRepo linkStore,
	orderRepo purchaseOrderWriter,
	tx txRunner,
	events eventEmitter,
	locker ProductLocker,
	dedupe dedupeStore,
	cfg config.PlannerConfig,
	logg *logger.Logger,
	plannerMetrics *metrics.PlannerMetrics,
) (Service, error) {
	if linkRepo == nil {
		return nil, fmt.Errorf("link repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if locker == nil {
		return nil, fmt.Errorf("product locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		links:   linkRepo,
		orders:  orderRepo,
		tx:      tx,
		events:  events,
		locker:  locker,
		dedupe:  dedupe,
		cfg:     cfg,
		logg:    logg,
		metrics: plannerMetrics,
	}, nil
}

// ProcessOrder deduplicates the webhook, serializes access to the touched
// products, plans the order, and commits purchase orders, stock decrements,
// and outbox events in one transaction. A stale stock version aborts the
// transaction and the whole cycle is retried against fresh links, up to the
// configured attempt budget.
func (s *service) ProcessOrder(ctx context.Context, input OrderInput) (*Outcome, error) {
	shop := strings.TrimSpace(input.Shop)
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	if strings.TrimSpace(input.Order.OrderReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}

	ctx = s.logg.WithOrderReference(s.logg.WithShop(ctx, shop), input.Order.OrderReference)

	dedupeKey, skipped, err := s.claimWebhook(ctx, input.WebhookID)
	if err != nil {
		return nil, err
	}
	if skipped {
		s.metrics.IncWebhookDuplicate()
		s.logg.Info(ctx, "duplicate order webhook skipped")
		return &Outcome{Deduplicated: true}, nil
	}

	outcome, err := s.planAndPersist(ctx, shop, input.Order)
	if err != nil {
		// Let the platform redeliver the webhook after a failed run.
		if dedupeKey != "" && s.dedupe != nil {
			if delErr := s.dedupe.Del(ctx, dedupeKey); delErr != nil {
				s.logg.Error(ctx, "releasing webhook dedupe key", delErr)
			}
		}
		return nil, err
	}
	return outcome, nil
}

func (s *service) claimWebhook(ctx context.Context, webhookID string) (string, bool, error) {
	if s.dedupe == nil || strings.TrimSpace(webhookID) == "" {
		return "", false, nil
	}
	key := s.dedupe.IdempotencyKey(webhookDedupeScope, webhookID)
	claimed, err := s.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.cfg.WebhookDedupeTTL)
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim webhook dedupe key")
	}
	return key, !claimed, nil
}

func (s *service) planAndPersist(ctx context.Context, shop string, order planner.Order) (*Outcome, error) {
	productIDs := collectProductIDs(order.LineItems)

	start := time.Now()
	if len(productIDs) > 0 {
		locks, err := s.locker.AcquireProductLocks(ctx, productIDs, s.cfg.LockTTL, s.cfg.LockWait)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire product locks")
		}
		defer func() {
			if err := locks.Release(ctx); err != nil {
				s.logg.Error(ctx, "releasing product locks", err)
			}
		}()
	}

	attempts := s.cfg.MaxPlanAttempts
	if attempts < 1 {
		attempts = 1
	}

	var outcome *Outcome
	for attempt := 1; ; attempt++ {
		var retry bool
		var err error
		outcome, retry, err = s.planOnce(ctx, shop, order, productIDs)
		if err != nil {
			s.metrics.IncPlan("failed")
			return nil, err
		}
		if !retry {
			break
		}
		s.metrics.IncConflictRetry()
		if attempt >= attempts {
			s.metrics.IncPlan("conflict")
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("stock contention persisted across %d plan attempts", attempts))
		}
		s.logg.Warn(ctx, "stale stock version, replanning")
	}

	s.metrics.ObservePlanDuration(shop, time.Since(start))
	s.metrics.IncPlan("planned")
	s.metrics.AddUnfulfillable(len(outcome.Unfulfillable))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"purchase_orders": len(outcome.Orders),
		"unfulfillable":   len(outcome.Unfulfillable),
	})
	s.logg.Info(ctx, "order planned")
	return outcome, nil
}

// planOnce runs one plan + persist cycle. The bool result requests a retry
// after a version conflict.
func (s *service) planOnce(ctx context.Context, shop string, order planner.Order, productIDs []string) (*Outcome, bool, error) {
	rows, err := s.links.ListForProducts(ctx, productIDs)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product links")
	}

	plannerLinks := make([]planner.Link, 0, len(rows))
	for _, row := range rows {
		plannerLinks = append(plannerLinks, links.PlannerLink(row))
	}

	result, planErr := planner.Plan(order, plannerLinks)
	if planErr != nil && !pkgerrors.IsCode(planErr, pkgerrors.CodeValidation) {
		return nil, false, planErr
	}

	pos := make([]*models.PurchaseOrder, 0, len(result.Orders))
	for _, planned := range result.Orders {
		pos = append(pos, purchaseorders.ModelFromPlanned(shop, order.OrderReference, planned))
	}

	var conflict bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// Stock writes go first so a stale version aborts before any
		// purchase order rows are inserted.
		for _, updated := range result.UpdatedLinks {
			if err := s.links.UpdateStockTx(tx, updated.ID, updated.StockLevel, updated.Version); err != nil {
				if err == links.ErrVersionConflict {
					conflict = true
				}
				return err
			}
		}
		if err := s.orders.SaveTx(tx, pos); err != nil {
			return err
		}
		for _, po := range pos {
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPurchaseOrderCreated,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   po.ID,
				Actor:         &outbox.ActorRef{Subject: "fulfillment-planner", Shop: shop},
				Data:          createdPayload(shop, po),
			}); err != nil {
				return err
			}
		}
		if len(result.Unfulfillable) > 0 {
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderUnfulfillable,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Actor:         &outbox.ActorRef{Subject: "fulfillment-planner", Shop: shop},
				Data: payloads.OrderUnfulfillableEvent{
					OrderReference: order.OrderReference,
					Shop:           shop,
					ProductIDs:     unfulfillableProducts(result.Unfulfillable),
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if conflict {
			return nil, true, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist plan")
	}

	outcome := &Outcome{
		Unfulfillable: result.Unfulfillable,
		ItemErrors:    planErr,
	}
	for _, po := range pos {
		outcome.Orders = append(outcome.Orders, *purchaseorders.FromModel(po))
	}
	return outcome, false, nil
}

func createdPayload(shop string, po *models.PurchaseOrder) payloads.PurchaseOrderCreatedEvent {
	dto := purchaseorders.FromModel(po)
	return payloads.PurchaseOrderCreatedEvent{
		PurchaseOrderID: po.ID,
		PONumber:        po.PONumber,
		SupplierID:      po.SupplierID,
		OrderReference:  po.OrderReference,
		Shop:            shop,
		ItemCount:       len(po.Items),
		TotalCost:       dto.Total,
	}
}

func collectProductIDs(items []planner.LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func unfulfillableProducts(items []planner.UnfulfillableItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
