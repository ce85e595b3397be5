package model

// Keys of the whatsapp.config key-value store.
const (
	ConfigKeyAccessToken   = "meta_access_token"
	ConfigKeyWabaID        = "waba_id"
	ConfigKeyPhoneNumberID = "phone_number_id"
	ConfigKeyVerifyToken   = "webhook_verify_token"
)

const VerifyTokenPrefix = "greengate_verify_token_"

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type WhatsAppConfig struct {
	AccessToken   string
	WabaID        string
	PhoneNumberID string
	VerifyToken   string
}

type SetWhatsAppConfigRequest struct {
	AccessToken   string `json:"accessToken" binding:"required"`
	WabaID        string `json:"wabaId"`
	PhoneNumberID string `json:"phoneNumberId" binding:"required"`
	VerifyToken   string `json:"verifyToken"`
}

type SetConfigValueRequest struct {
	Value string `json:"value" binding:"required"`
}

type ConfigKeyPathParam struct {
	Key string `uri:"key" binding:"required"`
}

// SafeConfig never carries the access token itself.
type SafeConfig struct {
	HasAccessToken   bool   `json:"hasAccessToken"`
	HasWabaID        bool   `json:"hasWabaId"`
	HasPhoneNumberID bool   `json:"hasPhoneNumberId"`
	HasVerifyToken   bool   `json:"hasVerifyToken"`
	PhoneNumberID    string `json:"phoneNumberId,omitempty"`
	WabaID           string `json:"wabaId,omitempty"`
}

type WebhookInfo struct {
	WebhookURL   string `json:"webhookUrl"`
	VerifyToken  string `json:"verifyToken"`
	IsConfigured bool   `json:"isConfigured"`
}

type WebhookTestResult struct {
	Message      string `json:"message"`
	VerifyToken  string `json:"verifyToken"`
	Instructions string `json:"instructions"`
}
