package model

import (
	"encoding/json"
	"strconv"
	"time"
)

type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

const (
	StatusReceived = "RECEIVED"
	StatusSent     = "SENT"
	StatusUnknown  = "UNKNOWN"
)

const DefaultMessagesLimit = 50

// Message is a row of whatsapp.messages. WhatsAppID is nil for rows the provider never acknowledged.
type Message struct {
	ID           int64     `db:"id" json:"id"`
	WhatsAppID   *string   `db:"whatsapp_id" json:"whatsapp_id"`
	ToNumber     string    `db:"to_number" json:"to_number"`
	FromNumber   string    `db:"from_number" json:"from_number"`
	TemplateName *string   `db:"template_name" json:"template_name"`
	Direction    Direction `db:"direction" json:"direction"`
	Status       string    `db:"status" json:"status"`
	Body         string    `db:"body" json:"body"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CounterpartyNumber is the end user's number regardless of direction.
func (m *Message) CounterpartyNumber() string {
	if m.Direction == DirectionInbound {
		return m.FromNumber
	}

	return m.ToNumber
}

// BusinessNumber is the deployment's own number regardless of direction.
func (m *Message) BusinessNumber() string {
	if m.Direction == DirectionInbound {
		return m.ToNumber
	}

	return m.FromNumber
}

type MessageIDPathParam struct {
	ID string `uri:"id" binding:"required"`
}

func (p MessageIDPathParam) Int64() (int64, error) {
	return strconv.ParseInt(p.ID, 10, 64)
}

type MessagesQuery struct {
	Limit int `form:"limit"`
}

type SendTemplateMessageRequest struct {
	ToNumber     string            `json:"to_number" binding:"required"`
	TemplateName string            `json:"template_name" binding:"required"`
	Components   []json.RawMessage `json:"components"`
}

type SendTextMessageRequest struct {
	ToNumber string `json:"to_number" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type SendMessageResponse struct {
	MessageID  int64  `json:"message_id"`
	WhatsAppID string `json:"whatsapp_id"`
}
