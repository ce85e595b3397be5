package whatsapp

import "encoding/json"

type SendTemplateRequest struct {
	To           string
	TemplateName string
	LanguageCode string
	Components   []json.RawMessage
}

type SendTextRequest struct {
	To   string
	Text string
}

type SendResponse struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []SendContact     `json:"contacts"`
	Messages         []SendMessageInfo `json:"messages"`
}

type SendContact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type SendMessageInfo struct {
	ID            string `json:"id"`
	MessageStatus string `json:"message_status,omitempty"`
}

// MessageID returns the provider id of the first accepted message, "" when none.
func (r *SendResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}

	return r.Messages[0].ID
}

// RemoteTemplate keeps the raw document next to the fields the console indexes on.
type RemoteTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Category string `json:"category"`
	Status   string `json:"status"`

	Raw json.RawMessage `json:"-"`
}

func (t *RemoteTemplate) UnmarshalJSON(data []byte) error {
	type plain RemoteTemplate

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*t = RemoteTemplate(p)
	t.Raw = append(json.RawMessage(nil), data...)

	return nil
}

type CreateTemplateRequest struct {
	Name       string            `json:"name"`
	Language   string            `json:"language"`
	Category   string            `json:"category"`
	Components []json.RawMessage `json:"components"`
}

type CreateTemplateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Category string `json:"category"`

	Raw json.RawMessage `json:"-"`
}

type listTemplatesResponse struct {
	Data []RemoteTemplate `json:"data"`
}

type outboundMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Template         *templatePayload `json:"template,omitempty"`
	Text             *textPayload     `json:"text,omitempty"`
}

type templatePayload struct {
	Name       string            `json:"name"`
	Language   templateLanguage  `json:"language"`
	Components []json.RawMessage `json:"components"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}
