package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

const (
	streamPollInterval = time.Second
	streamPongWait     = 60 * time.Second
	streamWriteWait    = 5 * time.Second
)

type MessageService interface {
	ListMessages(ctx context.Context, limit int) ([]model.Message, error)
	GetMessage(ctx context.Context, id int64) (*model.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	SendTemplate(ctx context.Context, req model.SendTemplateMessageRequest) (*model.SendMessageResponse, error)
	SendText(ctx context.Context, req model.SendTextMessageRequest) (*model.SendMessageResponse, error)
}

type MessageHandler struct {
	log *zap.Logger
	svc MessageService
}

func NewMessageHandler(log *zap.Logger, svc MessageService) *MessageHandler {
	return &MessageHandler{
		log: log,
		svc: svc,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are filtered by the CORS middleware when it is enabled.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type string `json:"type"`            // "snapshot" | "update" | "error"
	Data any    `json:"data,omitempty"`  // payload
	Err  string `json:"error,omitempty"` // error text
}

// ListMessages
// @Summary List stored messages.
// @Description Latest messages first, both directions.
// @Tags Messages
// @Produce json
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} ResponseWithData{data=[]model.Message} "Success"
// @Failure 400 {object} ResponseWithMessage "Invalid query"
// @Failure 500 {object} ResponseWithMessage "Failed to list messages"
// @Router /messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var query model.MessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	messages, err := h.svc.ListMessages(c.Request.Context(), query.Limit)
	if err != nil {
		h.log.Error("Failed to list messages", zap.Error(err))
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   messages,
	})
}

// GetMessage
// @Summary Get one message.
// @Tags Messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} ResponseWithData{data=model.Message} "Success"
// @Failure 400 {object} ResponseWithMessage "Invalid path param"
// @Failure 404 {object} ResponseWithMessage "Message not found"
// @Router /messages/{id} [get]
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, ok := bindMessageID(c)
	if !ok {
		return
	}

	message, err := h.svc.GetMessage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			notFound(c, err)
			return
		}

		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   message,
	})
}

// DeleteMessage
// @Summary Delete one message.
// @Tags Messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} ResponseWithMessage "Deleted"
// @Failure 404 {object} ResponseWithMessage "Message not found"
// @Router /messages/{id} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := bindMessageID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteMessage(c.Request.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			notFound(c, err)
			return
		}

		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "message deleted",
	})
}

// SendTemplate
// @Summary Send a template message.
// @Description The template must exist locally; the send is recorded as OUTBOUND/SENT.
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body model.SendTemplateMessageRequest true "Send payload"
// @Success 200 {object} ResponseWithData{data=model.SendMessageResponse} "Success"
// @Failure 400 {object} ResponseWithMessage "Invalid JSON body"
// @Failure 404 {object} ResponseWithMessage "Template not found"
// @Failure 502 {object} ResponseWithMessage "Provider rejected the message"
// @Router /messages/send [post]
func (h *MessageHandler) SendTemplate(c *gin.Context) {
	var req model.SendTemplateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.SendTemplate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrTemplateNotFound) {
			notFound(c, err)
			return
		}

		h.log.Error("Failed to send template message", zap.String("template", req.TemplateName), zap.Error(err))
		providerError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   res,
	})
}

// SendText
// @Summary Send a free-form text message.
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body model.SendTextMessageRequest true "Send payload"
// @Success 200 {object} ResponseWithData{data=model.SendMessageResponse} "Success"
// @Failure 400 {object} ResponseWithMessage "Invalid JSON body"
// @Failure 502 {object} ResponseWithMessage "Provider rejected the message"
// @Router /messages/send-text [post]
func (h *MessageHandler) SendText(c *gin.Context) {
	var req model.SendTextMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.SendText(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to send text message", zap.Error(err))
		providerError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   res,
	})
}

// Stream
// @Summary Live message feed over WebSocket.
// @Description Sends a snapshot of the latest messages, then an update whenever the list changes.
// @Tags Messages
// @Param limit query int false "Max rows (default 50)"
// @Router /messages/ws [get]
func (h *MessageHandler) Stream(c *gin.Context) {
	var query model.MessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// the read loop drives pong handling and notices the client going away
	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	send := func(msg wsMessage) bool {
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			return false
		}

		return true
	}

	var lastHash string

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			messages, err := h.svc.ListMessages(ctx, query.Limit)
			if err != nil {
				if !send(wsMessage{Type: "error", Err: err.Error()}) {
					return
				}

				continue
			}

			newHash := snapshotHash(messages)

			switch {
			case lastHash == "":
				if !send(wsMessage{Type: "snapshot", Data: messages}) {
					return
				}
			case newHash != lastHash:
				if !send(wsMessage{Type: "update", Data: messages}) {
					return
				}
			}

			lastHash = newHash

			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func snapshotHash(messages []model.Message) string {
	raw, _ := json.Marshal(messages)
	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])
}

func bindMessageID(c *gin.Context) (int64, bool) {
	var uri model.MessageIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return 0, false
	}

	id, err := uri.Int64()
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusErr,
			Message: "invalid message id",
		})

		return 0, false
	}

	return id, true
}
