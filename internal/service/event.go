package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greengate-back/internal/model"
	"greengate-back/internal/repository"
)

type OutboxRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.OutboxMessage) error
}

// EventService records message events in the outbox; the outbox publisher ships them to kafka.
// A disabled service drops events silently.
type EventService struct {
	log        *zap.Logger
	enabled    bool
	topic      string
	outboxRepo OutboxRepository
	now        func() time.Time
}

func NewEventService(log *zap.Logger, enabled bool, topic string, outboxRepo OutboxRepository) *EventService {
	return &EventService{
		log:        log,
		enabled:    enabled,
		topic:      topic,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (s *EventService) Publish(ctx context.Context, event model.MessageEvent) error {
	if !s.enabled {
		return nil
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	if err := s.outboxRepo.InsertMessage(ctx, nil, model.OutboxMessage{
		ID:      event.ID,
		Topic:   s.topic,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	s.log.Debug("Message event recorded", zap.String("event_id", event.ID.String()), zap.String("type", string(event.Type)))

	return nil
}
