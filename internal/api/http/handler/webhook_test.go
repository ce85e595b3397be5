package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/internal/service"
)

const testMaxBodyBytes = 1 << 20

func init() {
	gin.SetMode(gin.TestMode)
}

func newWebhookRouter(svc WebhookService, maxBodyBytes int64) *gin.Engine {
	h := NewWebhookHandler(zap.NewNop(), svc, maxBodyBytes)

	router := gin.New()
	router.GET("/webhook", h.Verify)
	router.POST("/webhook", h.Receive)

	return router
}

func TestWebhookHandler_Verify(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		svcResult  string
		svcErr     error
		wantCode   int
		wantBody   string
		wantInBody string
	}{
		{
			name:      "token matches",
			query:     "hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=12345",
			svcResult: "12345",
			wantCode:  http.StatusOK,
			wantBody:  "12345",
		},
		{
			name:       "token mismatch",
			query:      "hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345",
			svcErr:     apperrors.ErrVerifyTokenMismatch,
			wantCode:   http.StatusForbidden,
			wantInBody: "Verification failed",
		},
		{
			name:       "wrong mode",
			query:      "hub.mode=unsubscribe&hub.verify_token=s3cret&hub.challenge=12345",
			svcErr:     apperrors.ErrInvalidVerifyMode,
			wantCode:   http.StatusBadRequest,
			wantInBody: "Invalid mode",
		},
		{
			name:       "store failure",
			query:      "hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=12345",
			svcErr:     errors.New("db down"),
			wantCode:   http.StatusInternalServerError,
			wantInBody: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWebhookService)
			svc.On("Verify", mock.Anything, mock.AnythingOfType("model.VerifyQuery")).Return(tt.svcResult, tt.svcErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			rr := httptest.NewRecorder()

			newWebhookRouter(svc, testMaxBodyBytes).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)

			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
				assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
			}

			if tt.wantInBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantInBody)
			}

			svc.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_Verify_PassesQuery(t *testing.T) {
	svc := new(MockWebhookService)
	svc.On("Verify", mock.Anything, model.VerifyQuery{
		Mode:      "subscribe",
		Token:     "s3cret",
		Challenge: "abc",
	}).Return("abc", nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=abc", nil)
	rr := httptest.NewRecorder()

	newWebhookRouter(svc, testMaxBodyBytes).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestWebhookHandler_Receive_Acknowledges(t *testing.T) {
	payload := []byte(`{"object":"whatsapp_business_account","entry":[]}`)

	svc := new(MockWebhookService)
	svc.On("Ingest", payload).Return().Once()

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newWebhookRouter(svc, testMaxBodyBytes).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.WebhookAck, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestWebhookHandler_Receive_InvalidJSON(t *testing.T) {
	svc := new(MockWebhookService)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":`))
	rr := httptest.NewRecorder()

	newWebhookRouter(svc, testMaxBodyBytes).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Ingest", mock.Anything)
}

func TestWebhookHandler_Receive_BodyTooLarge(t *testing.T) {
	svc := new(MockWebhookService)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":"whatsapp_business_account"}`))
	rr := httptest.NewRecorder()

	newWebhookRouter(svc, 8).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	svc.AssertNotCalled(t, "Ingest", mock.Anything)
}

type MockWebhookMessageRepository struct {
	mock.Mock
}

func (m *MockWebhookMessageRepository) InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) error {
	args := m.Called(ctx, ext, message)
	return args.Error(0)
}

func (m *MockWebhookMessageRepository) SelectMessageByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID string) (*model.Message, error) {
	args := m.Called(ctx, ext, whatsappID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockWebhookMessageRepository) UpdateStatusByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID, status string) error {
	args := m.Called(ctx, ext, whatsappID, status)
	return args.Error(0)
}

type fixedVerifyToken string

func (t fixedVerifyToken) VerifyToken(context.Context) (string, error) {
	return string(t), nil
}

func TestWebhookHandler_EndToEnd(t *testing.T) {
	repo := new(MockWebhookMessageRepository)
	repo.On("SelectMessageByWhatsAppID", mock.Anything, mock.Anything, "wamid.A").
		Return(nil, apperrors.ErrMessageNotFound).Once()
	repo.On("InsertMessage", mock.Anything, mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.WhatsAppID != nil && *m.WhatsAppID == "wamid.A" &&
			m.FromNumber == "15550001" &&
			m.ToNumber == "15559999" &&
			m.Body == "hi" &&
			m.Direction == model.DirectionInbound &&
			m.Status == model.StatusReceived &&
			m.Timestamp.Equal(time.Unix(1700000000, 0))
	})).Return(nil).Once()

	svc := service.NewWebhookService(zap.NewNop(), service.WebhookConfig{
		ProcessingTimeout: 5 * time.Second,
		ShutdownGrace:     5 * time.Second,
	}, repo, fixedVerifyToken("s3cret"), nil)

	router := newWebhookRouter(svc, testMaxBodyBytes)

	payload := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
		"metadata":{"display_phone_number":"15559999"},
		"messages":[{"id":"wamid.A","from":"15550001","type":"text","timestamp":"1700000000","text":{"body":"hi"}}]
	}}]}]}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.WebhookAck, rr.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, svc.Wait(ctx))
	repo.AssertExpectations(t)

	verify := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=xyz", nil)
	rr = httptest.NewRecorder()

	router.ServeHTTP(rr, verify)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "xyz", rr.Body.String())
}
