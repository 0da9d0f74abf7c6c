package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	apperrors "github.com/cycle3/supplysync-backend/pkg/errors"
)

// DomainEvent is the unit handed to Emit by application services. The
// payload is enveloped and persisted inside the caller's transaction so
// that the event commits or rolls back with the state change it reports.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Emit persists the event on the given transaction. Callers pass the
// *gorm.DB from db.Client.WithTx so the insert joins their transaction.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if !event.EventType.IsValid() {
		return apperrors.New(apperrors.CodeInternal, "unknown outbox event type")
	}
	if !event.AggregateType.IsValid() {
		return apperrors.New(apperrors.CodeInternal, "unknown outbox aggregate type")
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "marshal outbox event data")
	}
	envelope := PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "marshal outbox envelope")
	}

	record := &models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}
	return s.repo.InsertTx(ctx, tx, record)
}
