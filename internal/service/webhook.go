package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
	"greengate-back/internal/repository"
)

type WebhookMessageRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) error
	SelectMessageByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID string) (*model.Message, error)
	UpdateStatusByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID, status string) error
}

type VerifyTokenProvider interface {
	VerifyToken(ctx context.Context) (string, error)
}

type MessageEventPublisher interface {
	Publish(ctx context.Context, event model.MessageEvent) error
}

type WebhookConfig struct {
	ProcessingTimeout time.Duration
	ShutdownGrace     time.Duration
}

// WebhookReport counts what one delivery did. It is only used for logging and tests.
type WebhookReport struct {
	Created           int
	Duplicates        int
	StatusesApplied   int
	StatusesUnmatched int
	Skipped           int
	Failed            int
}

type WebhookService struct {
	log         *zap.Logger
	cfg         WebhookConfig
	messageRepo WebhookMessageRepository
	tokens      VerifyTokenProvider
	events      MessageEventPublisher

	inFlight sync.WaitGroup
	now      func() time.Time
}

func NewWebhookService(
	log *zap.Logger,
	cfg WebhookConfig,
	messageRepo WebhookMessageRepository,
	tokens VerifyTokenProvider,
	events MessageEventPublisher,
) *WebhookService {
	return &WebhookService{
		log:         log,
		cfg:         cfg,
		messageRepo: messageRepo,
		tokens:      tokens,
		events:      events,
		now:         time.Now,
	}
}

// Verify answers the subscription handshake and returns the challenge to echo back.
func (s *WebhookService) Verify(ctx context.Context, query model.VerifyQuery) (string, error) {
	if query.Mode != model.WebhookModeSubscribe {
		return "", apperrors.ErrInvalidVerifyMode
	}

	secret, err := s.tokens.VerifyToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get verify token: %w", err)
	}

	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(query.Token)) != 1 {
		return "", apperrors.ErrVerifyTokenMismatch
	}

	s.log.Info("Webhook verified")

	return query.Challenge, nil
}

// Ingest schedules processing of an acknowledged delivery and returns at once.
// The task gets its own deadline and outlives the request that carried it.
func (s *WebhookService) Ingest(raw []byte) {
	payload := append([]byte(nil), raw...)

	s.inFlight.Add(1)

	go func() {
		defer s.inFlight.Done()

		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Webhook processing panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProcessingTimeout)
		defer cancel()

		report, err := s.Process(ctx, payload)
		if err != nil {
			s.log.Warn("Webhook delivery dropped", zap.Error(err))
			return
		}

		s.log.Debug("Webhook delivery processed",
			zap.Int("created", report.Created),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("statuses_applied", report.StatusesApplied),
			zap.Int("statuses_unmatched", report.StatusesUnmatched),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}()
}

// Wait blocks until every scheduled delivery finished or ctx is done.
func (s *WebhookService) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WebhookService) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()

	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("webhook deliveries still in flight: %w", err)
	}

	return nil
}

// Process walks entry -> changes -> value in payload order. Store errors on one
// element are logged and never stop its siblings.
func (s *WebhookService) Process(ctx context.Context, raw []byte) (WebhookReport, error) {
	var report WebhookReport

	var payload model.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return report, fmt.Errorf("%w: %w", apperrors.ErrInvalidPayload, err)
	}

	if payload.Object != model.WebhookObjectWhatsApp {
		s.log.Debug("Ignoring webhook object", zap.String("object", payload.Object))
		return report, nil
	}

	entries, err := rawList(payload.Entry)
	if err != nil {
		return report, fmt.Errorf("%w: entry: %w", apperrors.ErrInvalidPayload, err)
	}

	for i, rawEntry := range entries {
		var entry model.WebhookEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			s.log.Warn("Skipping malformed entry", zap.Int("entry", i), zap.Error(err))
			report.Skipped++

			continue
		}

		changes, err := rawList(entry.Changes)
		if err != nil {
			s.log.Warn("Skipping malformed changes", zap.Int("entry", i), zap.Error(err))
			report.Skipped++

			continue
		}

		for j, rawChange := range changes {
			s.processChange(ctx, rawChange, &report, zap.Int("entry", i), zap.Int("change", j))
		}
	}

	return report, nil
}

func (s *WebhookService) processChange(ctx context.Context, raw json.RawMessage, report *WebhookReport, fields ...zap.Field) {
	var change model.WebhookChange
	if err := json.Unmarshal(raw, &change); err != nil {
		s.log.Warn("Skipping malformed change", append(fields, zap.Error(err))...)
		report.Skipped++

		return
	}

	if isAbsent(change.Value) {
		return
	}

	var value model.WebhookChangeValue
	if err := json.Unmarshal(change.Value, &value); err != nil {
		s.log.Warn("Skipping malformed change value", append(fields, zap.Error(err))...)
		report.Skipped++

		return
	}

	var metadata model.WebhookMetadata
	if !isAbsent(value.Metadata) {
		if err := json.Unmarshal(value.Metadata, &metadata); err != nil {
			s.log.Warn("Ignoring malformed metadata", append(fields, zap.Error(err))...)
		}
	}

	messages, err := rawList(value.Messages)
	if err != nil {
		s.log.Warn("Skipping malformed messages", append(fields, zap.Error(err))...)
		report.Skipped++
	}

	for _, rawMessage := range messages {
		s.processMessage(ctx, metadata, rawMessage, report)
	}

	statuses, err := rawList(value.Statuses)
	if err != nil {
		s.log.Warn("Skipping malformed statuses", append(fields, zap.Error(err))...)
		report.Skipped++
	}

	for _, rawStatus := range statuses {
		s.processStatus(ctx, rawStatus, report)
	}
}

func (s *WebhookService) processMessage(ctx context.Context, metadata model.WebhookMetadata, raw json.RawMessage, report *WebhookReport) {
	var in model.WebhookMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		s.log.Warn("Skipping malformed message", zap.Error(err))
		report.Skipped++

		return
	}

	from := scalarText(in.From)

	if in.ID == "" || from == "" {
		s.log.Warn("Skipping message without id or sender", zap.String("whatsapp_id", in.ID))
		report.Skipped++

		return
	}

	log := s.log.With(zap.String("whatsapp_id", in.ID))

	_, err := s.messageRepo.SelectMessageByWhatsAppID(ctx, nil, in.ID)
	switch {
	case err == nil:
		log.Debug("Inbound message already stored")
		report.Duplicates++

		return
	case !errors.Is(err, apperrors.ErrMessageNotFound):
		log.Error("Failed to look up inbound message", zap.Error(err))
		report.Failed++

		return
	}

	timestamp, ok := parseEpoch(in.Timestamp)
	if !ok {
		timestamp = s.now().UTC()
	}

	whatsappID := in.ID

	message := &model.Message{
		WhatsAppID: &whatsappID,
		ToNumber:   metadata.DisplayPhoneNumber,
		FromNumber: from,
		Direction:  model.DirectionInbound,
		Status:     model.StatusReceived,
		Body:       synthesizeBody(&in),
		Timestamp:  timestamp,
	}

	if err := s.messageRepo.InsertMessage(ctx, nil, message); err != nil {
		if errors.Is(err, apperrors.ErrMessageAlreadyExists) {
			log.Debug("Inbound message stored concurrently")
			report.Duplicates++

			return
		}

		log.Error("Failed to store inbound message", zap.Error(err))
		report.Failed++

		return
	}

	log.Info("Inbound message stored", zap.Int64("id", message.ID), zap.String("type", in.Type))
	report.Created++

	s.publish(ctx, model.MessageEvent{
		Type:         model.MessageEventInbound,
		MessageID:    message.ID,
		WhatsAppID:   whatsappID,
		Direction:    message.Direction,
		Status:       message.Status,
		Counterparty: message.CounterpartyNumber(),
	})
}

func (s *WebhookService) processStatus(ctx context.Context, raw json.RawMessage, report *WebhookReport) {
	var in model.WebhookStatus
	if err := json.Unmarshal(raw, &in); err != nil {
		s.log.Warn("Skipping malformed status", zap.Error(err))
		report.Skipped++

		return
	}

	if in.ID == "" {
		s.log.Warn("Skipping status without message id")
		report.Skipped++

		return
	}

	log := s.log.With(zap.String("whatsapp_id", in.ID))
	status := normalizeStatus(in.Status)

	stored, err := s.messageRepo.SelectMessageByWhatsAppID(ctx, nil, in.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			log.Debug("Status for unknown message", zap.String("status", status))
			report.StatusesUnmatched++

			return
		}

		log.Error("Failed to look up message for status", zap.Error(err))
		report.Failed++

		return
	}

	if err := s.messageRepo.UpdateStatusByWhatsAppID(ctx, nil, in.ID, status); err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			log.Debug("Message vanished before status update", zap.String("status", status))
			report.StatusesUnmatched++

			return
		}

		log.Error("Failed to update message status", zap.Error(err))
		report.Failed++

		return
	}

	log.Info("Message status updated", zap.String("from", stored.Status), zap.String("to", status))
	report.StatusesApplied++

	s.publish(ctx, model.MessageEvent{
		Type:         model.MessageEventStatusChanged,
		MessageID:    stored.ID,
		WhatsAppID:   in.ID,
		Direction:    stored.Direction,
		Status:       status,
		Counterparty: stored.CounterpartyNumber(),
	})
}

func (s *WebhookService) publish(ctx context.Context, event model.MessageEvent) {
	if s.events == nil {
		return
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to record message event",
			zap.String("type", string(event.Type)),
			zap.String("whatsapp_id", event.WhatsAppID),
			zap.Error(err),
		)
	}
}
