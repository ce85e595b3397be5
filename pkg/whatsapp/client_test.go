package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	AccessToken:   "token-123",
	PhoneNumberID: "1099",
	WabaID:        "waba-7",
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL + "/", APIVersion: "v18.0"}, srv.Client())
}

func TestClient_SendText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v18.0/1099/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "whatsapp", got["messaging_product"])
		assert.Equal(t, "individual", got["recipient_type"])
		assert.Equal(t, "4912345", got["to"])
		assert.Equal(t, "text", got["type"])
		assert.Equal(t, map[string]any{"preview_url": false, "body": "hi"}, got["text"])
		assert.NotContains(t, got, "template")

		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.OUT"}]}`))
	})

	resp, err := client.SendText(context.Background(), testCreds, SendTextRequest{To: "4912345", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.OUT", resp.MessageID())
}

func TestClient_SendTemplate_DefaultsLanguage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Type     string `json:"type"`
			Template struct {
				Name     string `json:"name"`
				Language struct {
					Code string `json:"code"`
				} `json:"language"`
				Components []json.RawMessage `json:"components"`
			} `json:"template"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		assert.Equal(t, "template", got.Type)
		assert.Equal(t, "hello_world", got.Template.Name)
		assert.Equal(t, "en", got.Template.Language.Code)
		assert.NotNil(t, got.Template.Components)
		assert.Empty(t, got.Template.Components)

		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.TPL"}]}`))
	})

	resp, err := client.SendTemplate(context.Background(), testCreds, SendTemplateRequest{To: "1", TemplateName: "hello_world"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.TPL", resp.MessageID())
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	})

	_, err := client.SendText(context.Background(), testCreds, SendTextRequest{To: "1", Text: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid parameter", apiErr.Message)
	assert.Equal(t, 100, apiErr.Code)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)

	_, err := client.SendText(context.Background(), Credentials{PhoneNumberID: "1"}, SendTextRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.ListTemplates(context.Background(), Credentials{AccessToken: "t"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = client.DeleteTemplate(context.Background(), Credentials{}, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_ListTemplates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v18.0/waba-7/message_templates", r.URL.Path)

		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"order_update","language":"de","category":"UTILITY","status":"APPROVED","components":[]}]}`))
	})

	templates, err := client.ListTemplates(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	assert.Equal(t, "order_update", templates[0].Name)
	assert.Equal(t, "de", templates[0].Language)
	assert.JSONEq(t, `{"id":"1","name":"order_update","language":"de","category":"UTILITY","status":"APPROVED","components":[]}`, string(templates[0].Raw))
}

func TestClient_DeleteTemplate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "order_update", r.URL.Query().Get("name"))

		_, _ = w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, client.DeleteTemplate(context.Background(), testCreds, "order_update"))
}

func TestClient_CreateTemplate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got CreateTemplateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "promo", got.Name)

		_, _ = w.Write([]byte(`{"id":"555","status":"PENDING","category":"MARKETING"}`))
	})

	resp, err := client.CreateTemplate(context.Background(), testCreds, CreateTemplateRequest{
		Name:       "promo",
		Language:   "en",
		Category:   "MARKETING",
		Components: []json.RawMessage{json.RawMessage(`{"type":"BODY","text":"Hi"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "555", resp.ID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.JSONEq(t, `{"id":"555","status":"PENDING","category":"MARKETING"}`, string(resp.Raw))
}
