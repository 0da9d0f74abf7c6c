package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/links"
	"github.com/cycle3/supplysync-backend/internal/planner"
	"github.com/cycle3/supplysync-backend/pkg/config"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
)

type stubLinkStore struct {
	mu              sync.Mutex
	rows            map[uuid.UUID]models.ProductSupplierLink
	listErr         error
	injectConflicts int
	listCalls       int
}

func newStubLinkStore(rows ...models.ProductSupplierLink) *stubLinkStore {
	s := &stubLinkStore{rows: make(map[uuid.UUID]models.ProductSupplierLink)}
	for _, row := range rows {
		s.rows[row.ID] = row
	}
	return s
}

func (s *stubLinkStore) ListForProducts(_ context.Context, productIDs []string) ([]models.ProductSupplierLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	want := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		want[id] = struct{}{}
	}
	var out []models.ProductSupplierLink
	for _, row := range s.rows {
		if _, ok := want[row.ProductID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubLinkStore) UpdateStockTx(_ *gorm.DB, id uuid.UUID, stockLevel int, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injectConflicts > 0 {
		s.injectConflicts--
		return links.ErrVersionConflict
	}
	row, ok := s.rows[id]
	if !ok || row.Version != expectedVersion {
		return links.ErrVersionConflict
	}
	row.StockLevel = stockLevel
	row.Version++
	s.rows[id] = row
	return nil
}

func (s *stubLinkStore) get(id uuid.UUID) models.ProductSupplierLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

type stubPOWriter struct {
	mu    sync.Mutex
	saved []*models.PurchaseOrder
}

func (s *stubPOWriter) SaveTx(_ *gorm.DB, orders []*models.PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, orders...)
	return nil
}

func (s *stubPOWriter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn((*gorm.DB)(nil))
}

type stubEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubEmitter) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.DomainEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type noopUnlocker struct{}

func (noopUnlocker) Release(context.Context) error { return nil }

type noopLocker struct{}

func (noopLocker) AcquireProductLocks(context.Context, []string, time.Duration, time.Duration) (Unlocker, error) {
	return noopUnlocker{}, nil
}

type stubDedupe struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newStubDedupe() *stubDedupe {
	return &stubDedupe{keys: make(map[string]struct{})}
}

func (s *stubDedupe) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *stubDedupe) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func (s *stubDedupe) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (s *stubDedupe) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func testPlannerConfig() config.PlannerConfig {
	return config.PlannerConfig{
		LockTTL:          time.Second,
		LockWait:         time.Second,
		MaxPlanAttempts:  3,
		WebhookDedupeTTL: time.Hour,
	}
}

func newTestService(t *testing.T, linkRepo *stubLinkStore, poRepo *stubPOWriter, emitter *stubEmitter, dedupe *stubDedupe, cfg config.PlannerConfig) Service {
	t.Helper()
	svc, err := NewService(
		linkRepo,
		poRepo,
		stubTxRunner{},
		emitter,
		noopLocker{},
		dedupe,
		cfg,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		nil,
	)
	require.NoError(t, err)
	return svc
}

func singleLink(productID string, supplierID uuid.UUID, stock int) models.ProductSupplierLink {
	return models.ProductSupplierLink{
		ID:           uuid.New(),
		ProductID:    productID,
		SupplierID:   supplierID,
		Priority:     1,
		UnitPrice:    decimal.RequireFromString("4.25"),
		StockLevel:   stock,
		MinimumOrder: 1,
		Version:      1,
	}
}

func TestProcessOrderPersistsPlanAndEmitsEvents(t *testing.T) {
	t.Parallel()

	supplierID := uuid.New()
	link := singleLink("prod-1", supplierID, 10)
	linkRepo := newStubLinkStore(link)
	poRepo := &stubPOWriter{}
	emitter := &stubEmitter{}

	svc := newTestService(t, linkRepo, poRepo, emitter, newStubDedupe(), testPlannerConfig())

	outcome, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop:      "demo.myshopify.com",
		WebhookID: "wh-1",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "prod-1", SKU: "SKU-1", Quantity: 3}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.False(t, outcome.Deduplicated)
	require.Len(t, outcome.Orders, 1)
	assert.Equal(t, enums.PurchaseOrderStatusPendingApproval, outcome.Orders[0].Status)
	assert.Empty(t, outcome.Unfulfillable)
	assert.NoError(t, outcome.ItemErrors)

	require.Equal(t, 1, poRepo.count())
	assert.Equal(t, "demo.myshopify.com", poRepo.saved[0].Shop)
	assert.Equal(t, supplierID, poRepo.saved[0].SupplierID)

	after := linkRepo.get(link.ID)
	assert.Equal(t, 7, after.StockLevel)
	assert.Equal(t, int64(2), after.Version)

	created := emitter.byType(enums.EventPurchaseOrderCreated)
	require.Len(t, created, 1)
	assert.Equal(t, enums.AggregatePurchaseOrder, created[0].AggregateType)
	assert.Empty(t, emitter.byType(enums.EventOrderUnfulfillable))
}

func TestProcessOrderDuplicateWebhookSkipped(t *testing.T) {
	t.Parallel()

	linkRepo := newStubLinkStore(singleLink("prod-1", uuid.New(), 10))
	poRepo := &stubPOWriter{}
	dedupe := newStubDedupe()
	dedupe.keys[dedupe.IdempotencyKey(webhookDedupeScope, "wh-dup")] = struct{}{}

	svc := newTestService(t, linkRepo, poRepo, &stubEmitter{}, dedupe, testPlannerConfig())

	outcome, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop:      "demo.myshopify.com",
		WebhookID: "wh-dup",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "prod-1", Quantity: 1}},
		},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Deduplicated)
	assert.Empty(t, outcome.Orders)
	assert.Equal(t, 0, poRepo.count())
	assert.Equal(t, 0, linkRepo.listCalls)
}

func TestProcessOrderReleasesDedupeKeyOnFailure(t *testing.T) {
	t.Parallel()

	linkRepo := newStubLinkStore()
	linkRepo.listErr = errors.New("connection reset")
	dedupe := newStubDedupe()

	svc := newTestService(t, linkRepo, &stubPOWriter{}, &stubEmitter{}, dedupe, testPlannerConfig())

	_, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop:      "demo.myshopify.com",
		WebhookID: "wh-fail",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "prod-1", Quantity: 1}},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.False(t, dedupe.has(dedupe.IdempotencyKey(webhookDedupeScope, "wh-fail")))
}

func TestProcessOrderRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()

	link := singleLink("prod-1", uuid.New(), 10)
	linkRepo := newStubLinkStore(link)
	linkRepo.injectConflicts = 1
	poRepo := &stubPOWriter{}

	svc := newTestService(t, linkRepo, poRepo, &stubEmitter{}, newStubDedupe(), testPlannerConfig())

	outcome, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop: "demo.myshopify.com",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "prod-1", Quantity: 2}},
		},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Orders, 1)
	assert.Equal(t, 2, linkRepo.listCalls)

	// The conflicted attempt must not have persisted anything.
	require.Equal(t, 1, poRepo.count())
	assert.Equal(t, 8, linkRepo.get(link.ID).StockLevel)
}

func TestProcessOrderConflictBudgetExhausted(t *testing.T) {
	t.Parallel()

	link := singleLink("prod-1", uuid.New(), 10)
	linkRepo := newStubLinkStore(link)
	linkRepo.injectConflicts = 10
	cfg := testPlannerConfig()
	cfg.MaxPlanAttempts = 2

	svc := newTestService(t, linkRepo, &stubPOWriter{}, &stubEmitter{}, newStubDedupe(), cfg)

	_, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop: "demo.myshopify.com",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "prod-1", Quantity: 2}},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 2, linkRepo.listCalls)
}

func TestProcessOrderUnassignedProductEmitsUnfulfillable(t *testing.T) {
	t.Parallel()

	linkRepo := newStubLinkStore()
	poRepo := &stubPOWriter{}
	emitter := &stubEmitter{}

	svc := newTestService(t, linkRepo, poRepo, emitter, newStubDedupe(), testPlannerConfig())

	outcome, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop: "demo.myshopify.com",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems:      []planner.LineItem{{ProductID: "orphan", SKU: "SKU-X", Quantity: 2}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, outcome.Orders)
	require.Len(t, outcome.Unfulfillable, 1)
	assert.Equal(t, "orphan", outcome.Unfulfillable[0].ProductID)
	assert.Equal(t, 0, poRepo.count())
	require.Len(t, emitter.byType(enums.EventOrderUnfulfillable), 1)
}

func TestProcessOrderInvalidLineItemReportedRestPlanned(t *testing.T) {
	t.Parallel()

	link := singleLink("prod-1", uuid.New(), 10)
	linkRepo := newStubLinkStore(link)
	poRepo := &stubPOWriter{}

	svc := newTestService(t, linkRepo, poRepo, &stubEmitter{}, newStubDedupe(), testPlannerConfig())

	outcome, err := svc.ProcessOrder(context.Background(), OrderInput{
		Shop: "demo.myshopify.com",
		Order: planner.Order{
			OrderReference: "1001",
			LineItems: []planner.LineItem{
				{ProductID: "prod-1", SKU: "SKU-BAD", Quantity: 0},
				{ProductID: "prod-1", SKU: "SKU-OK", Quantity: 2},
			},
		},
	})
	require.NoError(t, err)
	require.Error(t, outcome.ItemErrors)
	assert.True(t, pkgerrors.IsCode(outcome.ItemErrors, pkgerrors.CodeValidation))
	require.Len(t, outcome.Orders, 1)
	assert.Equal(t, 1, poRepo.count())
}

func TestProcessOrderValidatesInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubLinkStore(), &stubPOWriter{}, &stubEmitter{}, newStubDedupe(), testPlannerConfig())

	_, err := svc.ProcessOrder(context.Background(), OrderInput{
		Order: planner.Order{OrderReference: "1001"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ProcessOrder(context.Background(), OrderInput{Shop: "demo.myshopify.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

// Two orders racing over the same link must not lose a decrement. The
// versioned stock write forces the loser to replan against fresh state, so
// the final stock level reflects both orders.
func TestProcessOrderConcurrentOrdersDoNotLoseStockDecrements(t *testing.T) {
	t.Parallel()

	link := singleLink("prod-1", uuid.New(), 10)
	linkRepo := newStubLinkStore(link)
	poRepo := &stubPOWriter{}
	cfg := testPlannerConfig()
	cfg.MaxPlanAttempts = 5

	svc := newTestService(t, linkRepo, poRepo, &stubEmitter{}, newStubDedupe(), cfg)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.ProcessOrder(context.Background(), OrderInput{
				Shop: "demo.myshopify.com",
				Order: planner.Order{
					OrderReference: fmt.Sprintf("20%02d", n),
					LineItems:      []planner.LineItem{{ProductID: "prod-1", Quantity: 3}},
				},
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	after := linkRepo.get(link.ID)
	assert.Equal(t, 4, after.StockLevel)
	assert.Equal(t, int64(3), after.Version)
	assert.Equal(t, 2, poRepo.count())
}
