package model

import "encoding/json"

const (
	WebhookObjectWhatsApp = "whatsapp_business_account"
	WebhookModeSubscribe  = "subscribe"
	WebhookAck            = "EVENT_RECEIVED"
)

// Message types with a synthesized body.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeAudio    = "audio"
	MessageTypeDocument = "document"
	MessageTypeLocation = "location"
	MessageTypeContacts = "contacts"
)

type VerifyQuery struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// WebhookPayload and the types below keep nested levels raw so each element is
// decoded on its own and a malformed sibling never spoils the rest.
type WebhookPayload struct {
	Object string          `json:"object"`
	Entry  json.RawMessage `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes json.RawMessage `json:"changes"`
}

type WebhookChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type WebhookChangeValue struct {
	MessagingProduct string          `json:"messaging_product"`
	Metadata         json.RawMessage `json:"metadata"`
	Messages         json.RawMessage `json:"messages"`
	Statuses         json.RawMessage `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// WebhookMessage keeps the type-specific objects raw. They are decoded field by
// field when the body is rendered, so an odd sub-field never drops the message.
type WebhookMessage struct {
	ID        string          `json:"id"`
	From      json.RawMessage `json:"from"`
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Text      json.RawMessage `json:"text"`
	Image     json.RawMessage `json:"image"`
	Video     json.RawMessage `json:"video"`
	Document  json.RawMessage `json:"document"`
	Location  json.RawMessage `json:"location"`
}

type WebhookStatus struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	RecipientID string          `json:"recipient_id"`
	Timestamp   json.RawMessage `json:"timestamp"`
}
