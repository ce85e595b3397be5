package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/kafka"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) UpdateAsSent(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error {
	args := m.Called(ctx, ext, messageID)
	return args.Error(0)
}

func (m *MockRepository) SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.OutboxMessage, error) {
	args := m.Called(ctx, ext, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutboxMessage), args.Error(1)
}

func (m *MockRepository) DeleteSentBefore(ctx context.Context, ext repository.RepoExtension, before time.Time) (int64, error) {
	args := m.Called(ctx, ext, before)
	return args.Get(0).(int64), args.Error(1)
}

func outboxMessage(payload string) model.OutboxMessage {
	return model.OutboxMessage{
		ID:      uuid.New(),
		Topic:   "greengate.message-events",
		Payload: []byte(payload),
	}
}

func TestPublisher_PublishBatch_MarksOnlyDelivered(t *testing.T) {
	first := outboxMessage(`{"type":"message.inbound"}`)
	second := outboxMessage(`{"type":"message.status_changed"}`)
	third := outboxMessage(`{"type":"message.outbound"}`)

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndSucceed()
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	sp.ExpectSendMessageAndSucceed()

	repo := new(MockRepository)
	repo.On("SelectUnsentBatch", mock.Anything, mock.Anything, 10).
		Return([]model.OutboxMessage{first, second, third}, nil).Once()
	repo.On("UpdateAsSent", mock.Anything, mock.Anything, first.ID).Return(nil).Once()
	repo.On("UpdateAsSent", mock.Anything, mock.Anything, third.ID).Return(nil).Once()

	p := NewPublisher(zap.NewNop(), Config{Name: "test", WorkerCount: 1, BatchSize: 10}, kafka.NewProducerFromSync(sp), repo)

	sent, err := p.PublishBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateAsSent", mock.Anything, mock.Anything, second.ID)
}

func TestPublisher_PublishBatch_Empty(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)

	repo := new(MockRepository)
	repo.On("SelectUnsentBatch", mock.Anything, mock.Anything, 1).Return([]model.OutboxMessage{}, nil).Once()

	p := NewPublisher(zap.NewNop(), Config{}, kafka.NewProducerFromSync(sp), repo)

	sent, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestPublisher_PublishBatch_SelectError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)

	repo := new(MockRepository)
	repo.On("SelectUnsentBatch", mock.Anything, mock.Anything, 5).Return(nil, errors.New("db down")).Once()

	p := NewPublisher(zap.NewNop(), Config{BatchSize: 5}, kafka.NewProducerFromSync(sp), repo)

	_, err := p.PublishBatch(context.Background())
	require.Error(t, err)
}

func TestPublisher_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	repo.On("DeleteSentBefore", mock.Anything, mock.Anything, now.Add(-7*24*time.Hour)).Return(int64(3), nil).Once()

	p := NewPublisher(zap.NewNop(), Config{Retention: 7 * 24 * time.Hour}, kafka.NewProducerFromSync(mocks.NewSyncProducer(t, nil)), repo)
	p.now = func() time.Time { return now }

	p.cleanup(context.Background())
	repo.AssertExpectations(t)

	disabled := NewPublisher(zap.NewNop(), Config{}, kafka.NewProducerFromSync(mocks.NewSyncProducer(t, nil)), repo)
	disabled.cleanup(context.Background())
	repo.AssertNumberOfCalls(t, "DeleteSentBefore", 1)
}
