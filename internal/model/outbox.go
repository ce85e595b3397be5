package model

import (
	"time"

	"github.com/google/uuid"
)

type OutboxMessage struct {
	ID        uuid.UUID  `db:"id"`
	Topic     string     `db:"topic"`
	Payload   []byte     `db:"payload"`
	CreatedAt time.Time  `db:"created_at"`
	Sent      bool       `db:"sent"`
	SentAt    *time.Time `db:"sent_at"`
}

type MessageEventType string

const (
	MessageEventInbound       MessageEventType = "message.inbound"
	MessageEventOutbound      MessageEventType = "message.outbound"
	MessageEventStatusChanged MessageEventType = "message.status_changed"
)

// MessageEvent is the body published to the message-events topic.
type MessageEvent struct {
	ID           uuid.UUID        `json:"id"`
	Type         MessageEventType `json:"type"`
	MessageID    int64            `json:"message_id,omitempty"`
	WhatsAppID   string           `json:"whatsapp_id"`
	Direction    Direction        `json:"direction,omitempty"`
	Status       string           `json:"status"`
	Counterparty string           `json:"counterparty_number,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
