package quotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/internal/links"
	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/logger"
	"github.com/cycle3/supplysync-backend/pkg/outbox"
	"github.com/cycle3/supplysync-backend/pkg/outbox/payloads"
)

// Candidate links promoted from a quote rank behind anything a merchant has
// prioritized by hand.
const candidatePriority = 100

// Extractor pulls line items out of an uploaded quote document. The real
// implementation calls an external OCR/vision service.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]ExtractedLine, error)
}

// ProductResolver maps a supplier SKU onto a shop product id. The second
// result reports whether the SKU resolved at all.
type ProductResolver interface {
	ResolveSKU(ctx context.Context, sku string) (string, bool, error)
}

type quoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Quote, error)
	MarkProcessedTx(tx *gorm.DB, quoteID uuid.UUID, lines []models.QuoteLine) error
	MarkFailed(ctx context.Context, quoteID uuid.UUID, reason string) error
}

type supplierLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

type linkUpserter interface {
	Upsert(ctx context.Context, dto links.UpsertLinkDTO) (*links.LinkDTO, bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PromotionResult reports what PromoteToLinks did with each extracted line.
type PromotionResult struct {
	Promoted     []links.LinkDTO `json:"promoted"`
	SkippedSKUs  []string        `json:"skipped_skus"`
	CreatedCount int             `json:"created_count"`
	UpdatedCount int             `json:"updated_count"`
}

// Service ingests supplier quote documents and promotes their lines into
// product supplier links.
type Service interface {
	Ingest(ctx context.Context, dto IngestQuoteDTO, doc Document) (*QuoteDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*QuoteDTO, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]QuoteDTO, error)
	PromoteToLinks(ctx context.Context, quoteID uuid.UUID, resolver ProductResolver) (*PromotionResult, error)
}

type service struct {
	repo      quoteRepository
	suppliers supplierLookup
	links     linkUpserter
	extractor Extractor
	tx        txRunner
	events    eventEmitter
	logg      *logger.Logger
}

// NewService builds the quote ingestion service.
func NewService(
	repo quoteRepository,
	suppliers supplierLookup,
	linkSvc linkUpserter,
	extractor Extractor,
	tx txRunner,
	events eventEmitter,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier lookup required")
	}
	if linkSvc == nil {
		return nil, fmt.Errorf("link service required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		suppliers: suppliers,
		links:     linkSvc,
		extractor: extractor,
		tx:        tx,
		events:    events,
		logg:      logg,
	}, nil
}

// Ingest stores the quote, runs the extractor, and records the outcome. An
// extraction failure is captured on the quote rather than returned as an
// error so the upload itself still succeeds.
func (s *service) Ingest(ctx context.Context, dto IngestQuoteDTO, doc Document) (*QuoteDTO, error) {
	if dto.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if strings.TrimSpace(doc.SourceName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document source name is required")
	}
	if strings.TrimSpace(doc.MediaType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document media type is required")
	}
	if len(doc.Content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document content is empty")
	}

	supplier, err := s.suppliers.FindByID(ctx, dto.SupplierID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	quote := &models.Quote{
		ID:         uuid.New(),
		SupplierID: supplier.ID,
		SourceName: doc.SourceName,
		MediaType:  doc.MediaType,
		ValidUntil: dto.ValidUntil,
		Status:     enums.QuoteStatusReceived,
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
	}

	ctx = s.logg.WithField(ctx, "quote_id", quote.ID.String())

	extracted, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		reason := err.Error()
		if markErr := s.repo.MarkFailed(ctx, quote.ID, reason); markErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, markErr, "record extraction failure")
		}
		s.logg.Error(ctx, "quote extraction failed", err)
		quote.Status = enums.QuoteStatusFailed
		quote.FailReason = &reason
		return FromModel(quote), nil
	}

	lines := make([]models.QuoteLine, 0, len(extracted))
	for _, line := range extracted {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" || line.Quantity <= 0 || line.UnitPrice.IsNegative() {
			continue
		}
		lines = append(lines, models.QuoteLine{
			ID:          uuid.New(),
			QuoteID:     quote.ID,
			SKU:         sku,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.MarkProcessedTx(tx, quote.ID, lines); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteProcessed,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Actor:         &outbox.ActorRef{Subject: "quote-ingestion"},
			Data: payloads.QuoteProcessedEvent{
				QuoteID:    quote.ID,
				SupplierID: supplier.ID,
				SourceName: quote.SourceName,
				LineCount:  len(lines),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist extracted lines")
	}

	quote.Status = enums.QuoteStatusProcessed
	quote.Lines = lines
	s.logg.Info(ctx, "quote processed")
	return FromModel(quote), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*QuoteDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return FromModel(quote), nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]QuoteDTO, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	rows, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	dtos := make([]QuoteDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

// PromoteToLinks upserts a candidate supplier link for every processed line
// whose SKU resolves to a product. Unresolved SKUs are reported, not fatal.
func (s *service) PromoteToLinks(ctx context.Context, quoteID uuid.UUID, resolver ProductResolver) (*PromotionResult, error) {
	if quoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product resolver is required")
	}

	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if quote.Status != enums.QuoteStatusProcessed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("quote is %s, only processed quotes can be promoted", quote.Status))
	}

	result := &PromotionResult{}
	for _, line := range quote.Lines {
		productID, ok, err := resolver.ResolveSKU(ctx, line.SKU)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve sku")
		}
		if !ok {
			result.SkippedSKUs = append(result.SkippedSKUs, line.SKU)
			continue
		}
		dto, created, err := s.links.Upsert(ctx, links.UpsertLinkDTO{
			ProductID:  productID,
			SupplierID: quote.SupplierID,
			Priority:   candidatePriority,
			UnitPrice:  line.UnitPrice,
			StockLevel: line.Quantity,
		})
		if err != nil {
			return nil, err
		}
		result.Promoted = append(result.Promoted, *dto)
		if created {
			result.CreatedCount++
		} else {
			result.UpdatedCount++
		}
	}
	return result, nil
}
