package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greengate-back/internal/model"
)

func TestEventService_Publish_Disabled(t *testing.T) {
	repo := new(MockOutboxRepository)
	svc := NewEventService(zap.NewNop(), false, "greengate.message-events", repo)

	require.NoError(t, svc.Publish(context.Background(), model.MessageEvent{Type: model.MessageEventInbound}))
	repo.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventService_Publish_WritesOutbox(t *testing.T) {
	repo := new(MockOutboxRepository)

	var stored model.OutboxMessage
	repo.On("InsertMessage", mock.Anything, mock.Anything, mock.AnythingOfType("model.OutboxMessage")).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).(model.OutboxMessage)
		}).Return(nil)

	svc := NewEventService(zap.NewNop(), true, "greengate.message-events", repo)
	svc.now = func() time.Time { return fixedNow }

	err := svc.Publish(context.Background(), model.MessageEvent{
		Type:       model.MessageEventStatusChanged,
		WhatsAppID: "wamid.123",
		Status:     "READ",
	})
	require.NoError(t, err)

	assert.Equal(t, "greengate.message-events", stored.Topic)
	assert.NotEqual(t, uuid.Nil, stored.ID)

	var event model.MessageEvent
	require.NoError(t, json.Unmarshal(stored.Payload, &event))
	assert.Equal(t, stored.ID, event.ID)
	assert.Equal(t, model.MessageEventStatusChanged, event.Type)
	assert.Equal(t, "READ", event.Status)
	assert.True(t, event.OccurredAt.Equal(fixedNow))
}
