package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v18.0"

	maxResponseBody = 4 << 20
)

var ErrNotConfigured = errors.New("whatsapp configuration not set")

// Credentials are read from the configuration store on every call, so a console
// update takes effect without a restart.
type Credentials struct {
	AccessToken   string
	PhoneNumberID string
	WabaID        string
}

type Config struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
}

type Client struct {
	baseURL    string
	apiVersion string
	http       *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Client{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		http:       httpClient,
	}
}

// APIError carries the message Graph returns in {"error":{"message":...}}.
type APIError struct {
	StatusCode int
	Message    string
	Code       int
	Type       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error (status %d): %s", e.StatusCode, e.Message)
}

func (c *Client) SendTemplate(ctx context.Context, creds Credentials, req SendTemplateRequest) (*SendResponse, error) {
	if creds.AccessToken == "" || creds.PhoneNumberID == "" {
		return nil, fmt.Errorf("%w: access token and phone number id are required", ErrNotConfigured)
	}

	languageCode := req.LanguageCode
	if languageCode == "" {
		languageCode = "en"
	}

	components := req.Components
	if components == nil {
		components = []json.RawMessage{}
	}

	payload := outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               req.To,
		Type:             "template",
		Template: &templatePayload{
			Name:       req.TemplateName,
			Language:   templateLanguage{Code: languageCode},
			Components: components,
		},
	}

	var resp SendResponse
	if err := c.do(ctx, http.MethodPost, c.phonePath(creds, "messages"), creds.AccessToken, nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to send template message: %w", err)
	}

	return &resp, nil
}

func (c *Client) SendText(ctx context.Context, creds Credentials, req SendTextRequest) (*SendResponse, error) {
	if creds.AccessToken == "" || creds.PhoneNumberID == "" {
		return nil, fmt.Errorf("%w: access token and phone number id are required", ErrNotConfigured)
	}

	payload := outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               req.To,
		Type:             "text",
		Text: &textPayload{
			PreviewURL: false,
			Body:       req.Text,
		},
	}

	var resp SendResponse
	if err := c.do(ctx, http.MethodPost, c.phonePath(creds, "messages"), creds.AccessToken, nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to send text message: %w", err)
	}

	return &resp, nil
}

func (c *Client) ListTemplates(ctx context.Context, creds Credentials) ([]RemoteTemplate, error) {
	if creds.AccessToken == "" || creds.WabaID == "" {
		return nil, fmt.Errorf("%w: access token and waba id are required", ErrNotConfigured)
	}

	var resp listTemplatesResponse
	if err := c.do(ctx, http.MethodGet, c.wabaPath(creds, "message_templates"), creds.AccessToken, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}

	if resp.Data == nil {
		return []RemoteTemplate{}, nil
	}

	return resp.Data, nil
}

func (c *Client) CreateTemplate(ctx context.Context, creds Credentials, tpl CreateTemplateRequest) (*CreateTemplateResponse, error) {
	if creds.AccessToken == "" || creds.WabaID == "" {
		return nil, fmt.Errorf("%w: access token and waba id are required", ErrNotConfigured)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, c.wabaPath(creds, "message_templates"), creds.AccessToken, nil, tpl, &raw); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	resp := CreateTemplateResponse{Raw: raw}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode create template response: %w", err)
	}

	return &resp, nil
}

func (c *Client) DeleteTemplate(ctx context.Context, creds Credentials, name string) error {
	if creds.AccessToken == "" || creds.WabaID == "" {
		return fmt.Errorf("%w: access token and waba id are required", ErrNotConfigured)
	}

	query := url.Values{"name": []string{name}}

	if err := c.do(ctx, http.MethodDelete, c.wabaPath(creds, "message_templates"), creds.AccessToken, query, nil, nil); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

func (c *Client) phonePath(creds Credentials, resource string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.apiVersion, url.PathEscape(creds.PhoneNumberID), resource)
}

func (c *Client) wabaPath(creds Credentials, resource string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.apiVersion, url.PathEscape(creds.WabaID), resource)
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, query url.Values, body, out any) error {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func parseAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
	}

	return apiErr
}
