package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"greengate-back/internal/model"
)

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) Verify(ctx context.Context, query model.VerifyQuery) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *MockWebhookService) Ingest(raw []byte) {
	m.Called(raw)
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) ListMessages(ctx context.Context, limit int) ([]model.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageService) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageService) DeleteMessage(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageService) SendTemplate(ctx context.Context, req model.SendTemplateMessageRequest) (*model.SendMessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendMessageResponse), args.Error(1)
}

func (m *MockMessageService) SendText(ctx context.Context, req model.SendTextMessageRequest) (*model.SendMessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendMessageResponse), args.Error(1)
}

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) ListTemplates(ctx context.Context) ([]model.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockTemplateService) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) CreateTemplate(ctx context.Context, req model.CreateTemplateRequest) (*model.CreateTemplateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreateTemplateResult), args.Error(1)
}

func (m *MockTemplateService) UpdateTemplate(ctx context.Context, id int64, update *model.TemplateUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockTemplateService) DeleteTemplate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateService) SyncTemplates(ctx context.Context) (*model.SyncTemplatesResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncTemplatesResult), args.Error(1)
}

type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockConfigService) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockConfigService) SafeConfig(ctx context.Context) (*model.SafeConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SafeConfig), args.Error(1)
}

func (m *MockConfigService) SetWhatsAppConfig(ctx context.Context, req model.SetWhatsAppConfigRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockConfigService) WebhookInfo(ctx context.Context, derivedURL string) (*model.WebhookInfo, error) {
	args := m.Called(ctx, derivedURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookInfo), args.Error(1)
}

func (m *MockConfigService) TestWebhook(ctx context.Context) (*model.WebhookTestResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookTestResult), args.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) *model.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(*model.HealthStatus)
}
