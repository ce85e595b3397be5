package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

type WebhookService interface {
	Verify(ctx context.Context, query model.VerifyQuery) (string, error)
	Ingest(raw []byte)
}

type WebhookHandler struct {
	log          *zap.Logger
	svc          WebhookService
	maxBodyBytes int64
}

func NewWebhookHandler(log *zap.Logger, svc WebhookService, maxBodyBytes int64) *WebhookHandler {
	return &WebhookHandler{
		log:          log,
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
	}
}

// Verify
// @Summary Webhook subscription handshake.
// @Description Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches the stored token.
// @Tags Webhook
// @Produce plain
// @Param hub.mode query string true "Must be subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string "Challenge"
// @Failure 400 {object} ResponseWithError "Invalid mode"
// @Failure 403 {object} ResponseWithError "Token mismatch"
// @Failure 500 {object} ResponseWithError "Configuration store failure"
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c *gin.Context) {
	var query model.VerifyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithError{Error: err.Error()})
		return
	}

	challenge, err := h.svc.Verify(c.Request.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidVerifyMode):
			c.JSON(http.StatusBadRequest, ResponseWithError{Error: "Invalid mode"})
		case errors.Is(err, apperrors.ErrVerifyTokenMismatch):
			h.log.Warn("Webhook verification failed", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusForbidden, ResponseWithError{Error: "Verification failed"})
		default:
			h.log.Error("Webhook verification error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ResponseWithError{Error: "Internal server error"})
		}

		return
	}

	c.Data(http.StatusOK, contentTypeText, []byte(challenge))
}

// Receive
// @Summary Webhook event delivery.
// @Description Acknowledges the delivery with EVENT_RECEIVED and reconciles messages and statuses in the background.
// @Tags Webhook
// @Accept json
// @Produce plain
// @Success 200 {string} string "EVENT_RECEIVED"
// @Failure 400 {object} ResponseWithError "Invalid JSON body"
// @Failure 413 {object} ResponseWithError "Body too large"
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ResponseWithError{Error: "Request body too large"})
			return
		}

		c.JSON(http.StatusBadRequest, ResponseWithError{Error: "Failed to read request body"})

		return
	}

	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, ResponseWithError{Error: "Invalid JSON"})
		return
	}

	c.Data(http.StatusOK, contentTypeText, []byte(model.WebhookAck))

	h.svc.Ingest(body)
}
