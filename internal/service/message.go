package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/whatsapp"
)

const maxMessagesLimit = 500

type MessageRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) error
	SelectMessageByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Message, error)
	SelectMessages(ctx context.Context, ext repository.RepoExtension, limit int) ([]model.Message, error)
	DeleteMessage(ctx context.Context, ext repository.RepoExtension, id int64) error
}

type TemplateLookup interface {
	SelectTemplateByName(ctx context.Context, ext repository.RepoExtension, name string) (*model.Template, error)
}

type CredentialsProvider interface {
	Credentials(ctx context.Context) (whatsapp.Credentials, error)
}

type WhatsAppSender interface {
	SendTemplate(ctx context.Context, creds whatsapp.Credentials, req whatsapp.SendTemplateRequest) (*whatsapp.SendResponse, error)
	SendText(ctx context.Context, creds whatsapp.Credentials, req whatsapp.SendTextRequest) (*whatsapp.SendResponse, error)
}

type MessageService struct {
	log          *zap.Logger
	messageRepo  MessageRepository
	templateRepo TemplateLookup
	creds        CredentialsProvider
	sender       WhatsAppSender
	events       MessageEventPublisher
	now          func() time.Time
}

func NewMessageService(
	log *zap.Logger,
	messageRepo MessageRepository,
	templateRepo TemplateLookup,
	creds CredentialsProvider,
	sender WhatsAppSender,
	events MessageEventPublisher,
) *MessageService {
	return &MessageService{
		log:          log,
		messageRepo:  messageRepo,
		templateRepo: templateRepo,
		creds:        creds,
		sender:       sender,
		events:       events,
		now:          time.Now,
	}
}

func (s *MessageService) ListMessages(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = model.DefaultMessagesLimit
	}

	if limit > maxMessagesLimit {
		limit = maxMessagesLimit
	}

	messages, err := s.messageRepo.SelectMessages(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}

	return messages, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	return s.messageRepo.SelectMessageByID(ctx, nil, id)
}

func (s *MessageService) DeleteMessage(ctx context.Context, id int64) error {
	return s.messageRepo.DeleteMessage(ctx, nil, id)
}

// SendTemplate sends a template that is known locally and records the outbound message.
func (s *MessageService) SendTemplate(ctx context.Context, req model.SendTemplateMessageRequest) (*model.SendMessageResponse, error) {
	template, err := s.templateRepo.SelectTemplateByName(ctx, nil, req.TemplateName)
	if err != nil {
		return nil, err
	}

	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	components := req.Components
	if components == nil {
		components = []json.RawMessage{}
	}

	resp, err := s.sender.SendTemplate(ctx, creds, whatsapp.SendTemplateRequest{
		To:           req.ToNumber,
		TemplateName: req.TemplateName,
		LanguageCode: template.LanguageCode,
		Components:   components,
	})
	if err != nil {
		return nil, mapSendError(err)
	}

	templateName := req.TemplateName

	message := &model.Message{
		ToNumber:     req.ToNumber,
		FromNumber:   creds.PhoneNumberID,
		TemplateName: &templateName,
		Direction:    model.DirectionOutbound,
		Status:       model.StatusSent,
		Body:         "Template: " + req.TemplateName,
	}

	return s.record(ctx, message, resp)
}

func (s *MessageService) SendText(ctx context.Context, req model.SendTextMessageRequest) (*model.SendMessageResponse, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.sender.SendText(ctx, creds, whatsapp.SendTextRequest{
		To:   req.ToNumber,
		Text: req.Text,
	})
	if err != nil {
		return nil, mapSendError(err)
	}

	message := &model.Message{
		ToNumber:   req.ToNumber,
		FromNumber: creds.PhoneNumberID,
		Direction:  model.DirectionOutbound,
		Status:     model.StatusSent,
		Body:       req.Text,
	}

	return s.record(ctx, message, resp)
}

func (s *MessageService) credentials(ctx context.Context) (whatsapp.Credentials, error) {
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return whatsapp.Credentials{}, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	if creds.AccessToken == "" || creds.PhoneNumberID == "" {
		return whatsapp.Credentials{}, apperrors.ErrWhatsAppNotConfigured
	}

	return creds, nil
}

func (s *MessageService) record(ctx context.Context, message *model.Message, resp *whatsapp.SendResponse) (*model.SendMessageResponse, error) {
	message.Timestamp = s.now().UTC()

	if id := resp.MessageID(); id != "" {
		message.WhatsAppID = &id
	}

	if err := s.messageRepo.InsertMessage(ctx, nil, message); err != nil {
		return nil, fmt.Errorf("message sent but not stored: %w", err)
	}

	whatsappID := resp.MessageID()

	s.log.Info("Outbound message sent",
		zap.Int64("id", message.ID),
		zap.String("whatsapp_id", whatsappID),
	)

	if s.events != nil {
		if err := s.events.Publish(ctx, model.MessageEvent{
			Type:         model.MessageEventOutbound,
			MessageID:    message.ID,
			WhatsAppID:   whatsappID,
			Direction:    message.Direction,
			Status:       message.Status,
			Counterparty: message.CounterpartyNumber(),
		}); err != nil {
			s.log.Warn("Failed to record message event", zap.Int64("id", message.ID), zap.Error(err))
		}
	}

	return &model.SendMessageResponse{
		MessageID:  message.ID,
		WhatsAppID: whatsappID,
	}, nil
}

func mapSendError(err error) error {
	if errors.Is(err, whatsapp.ErrNotConfigured) {
		return apperrors.ErrWhatsAppNotConfigured
	}

	return fmt.Errorf("failed to send message: %w", err)
}
