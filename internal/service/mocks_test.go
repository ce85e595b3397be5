package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/whatsapp"
)

// --- Mocks ---

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) error {
	args := m.Called(ctx, ext, message)
	return args.Error(0)
}

func (m *MockMessageRepository) SelectMessageByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID string) (*model.Message, error) {
	args := m.Called(ctx, ext, whatsappID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateStatusByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID, status string) error {
	args := m.Called(ctx, ext, whatsappID, status)
	return args.Error(0)
}

func (m *MockMessageRepository) SelectMessageByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Message, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) SelectMessages(ctx context.Context, ext repository.RepoExtension, limit int) ([]model.Message, error) {
	args := m.Called(ctx, ext, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageRepository) DeleteMessage(ctx context.Context, ext repository.RepoExtension, id int64) error {
	args := m.Called(ctx, ext, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event model.MessageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) VerifyToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockCredentialsProvider struct {
	mock.Mock
}

func (m *MockCredentialsProvider) Credentials(ctx context.Context) (whatsapp.Credentials, error) {
	args := m.Called(ctx)
	return args.Get(0).(whatsapp.Credentials), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendTemplate(ctx context.Context, creds whatsapp.Credentials, req whatsapp.SendTemplateRequest) (*whatsapp.SendResponse, error) {
	args := m.Called(ctx, creds, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*whatsapp.SendResponse), args.Error(1)
}

func (m *MockSender) SendText(ctx context.Context, creds whatsapp.Credentials, req whatsapp.SendTextRequest) (*whatsapp.SendResponse, error) {
	args := m.Called(ctx, creds, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*whatsapp.SendResponse), args.Error(1)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) InsertTemplate(ctx context.Context, ext repository.RepoExtension, template *model.Template) error {
	args := m.Called(ctx, ext, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) UpsertTemplateByName(ctx context.Context, ext repository.RepoExtension, template *model.Template) error {
	args := m.Called(ctx, ext, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) SelectTemplates(ctx context.Context, ext repository.RepoExtension) ([]model.Template, error) {
	args := m.Called(ctx, ext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockTemplateRepository) SelectTemplateByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Template, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) SelectTemplateByName(ctx context.Context, ext repository.RepoExtension, name string) (*model.Template, error) {
	args := m.Called(ctx, ext, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) UpdateTemplate(ctx context.Context, ext repository.RepoExtension, id int64, update *model.TemplateUpdate) error {
	args := m.Called(ctx, ext, id, update)
	return args.Error(0)
}

func (m *MockTemplateRepository) DeleteTemplate(ctx context.Context, ext repository.RepoExtension, id int64) error {
	args := m.Called(ctx, ext, id)
	return args.Error(0)
}

type MockTemplateProvider struct {
	mock.Mock
}

func (m *MockTemplateProvider) ListTemplates(ctx context.Context, creds whatsapp.Credentials) ([]whatsapp.RemoteTemplate, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]whatsapp.RemoteTemplate), args.Error(1)
}

func (m *MockTemplateProvider) CreateTemplate(ctx context.Context, creds whatsapp.Credentials, tpl whatsapp.CreateTemplateRequest) (*whatsapp.CreateTemplateResponse, error) {
	args := m.Called(ctx, creds, tpl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*whatsapp.CreateTemplateResponse), args.Error(1)
}

func (m *MockTemplateProvider) DeleteTemplate(ctx context.Context, creds whatsapp.Credentials, name string) error {
	args := m.Called(ctx, creds, name)
	return args.Error(0)
}

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) SelectValue(ctx context.Context, ext repository.RepoExtension, key string) (string, error) {
	args := m.Called(ctx, ext, key)
	return args.String(0), args.Error(1)
}

func (m *MockConfigRepository) UpsertValue(ctx context.Context, ext repository.RepoExtension, key, value string) error {
	args := m.Called(ctx, ext, key, value)
	return args.Error(0)
}

type MockConfigCache struct {
	mock.Mock
}

func (m *MockConfigCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockConfigCache) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockConfigCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.OutboxMessage) error {
	args := m.Called(ctx, ext, message)
	return args.Error(0)
}

type MockHealthRepository struct {
	mock.Mock
}

func (m *MockHealthRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- In-memory store ---

// memoryMessageStore mirrors the whatsapp.messages unique constraint on whatsapp_id.
type memoryMessageStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.Message
}

func newMemoryMessageStore() *memoryMessageStore {
	return &memoryMessageStore{}
}

func (s *memoryMessageStore) InsertMessage(_ context.Context, _ repository.RepoExtension, message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.WhatsAppID != nil {
		for _, row := range s.rows {
			if row.WhatsAppID != nil && *row.WhatsAppID == *message.WhatsAppID {
				return apperrors.ErrMessageAlreadyExists
			}
		}
	}

	s.nextID++
	message.ID = s.nextID

	stored := *message
	s.rows = append(s.rows, &stored)

	return nil
}

func (s *memoryMessageStore) SelectMessageByWhatsAppID(_ context.Context, _ repository.RepoExtension, whatsappID string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.WhatsAppID != nil && *row.WhatsAppID == whatsappID {
			found := *row
			return &found, nil
		}
	}

	return nil, apperrors.ErrMessageNotFound
}

func (s *memoryMessageStore) UpdateStatusByWhatsAppID(_ context.Context, _ repository.RepoExtension, whatsappID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.WhatsAppID != nil && *row.WhatsAppID == whatsappID {
			row.Status = status
			return nil
		}
	}

	return apperrors.ErrMessageNotFound
}

func (s *memoryMessageStore) all() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}

	return out
}

func (s *memoryMessageStore) seed(message model.Message) {
	_ = s.InsertMessage(context.Background(), nil, &message)
}

type staticTokenProvider string

func (p staticTokenProvider) VerifyToken(context.Context) (string, error) {
	return string(p), nil
}

func strPtr(s string) *string {
	return &s
}
