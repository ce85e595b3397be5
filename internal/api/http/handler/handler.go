package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"greengate-back/internal/apperrors"
	"greengate-back/pkg/whatsapp"
)

const (
	StatusErr          = "error"
	StatusSuccess      = "success"
	StatusNotAvailable = "not available"
	StatusOK           = "ok"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
)

// ResponseWithData
// @Description Common success/error envelope carrying an arbitrary payload.
type ResponseWithData struct {
	Status string `json:"status"` // Request result
	Data   any    `json:"data"`   // Payload
} // @Name _ResponseWithData

// ResponseWithMessage
// @Description Common envelope carrying only a human readable message.
type ResponseWithMessage struct {
	Status  string `json:"status"`  // Request result
	Message string `json:"message"` // Human readable message
} // @Name _ResponseWithMessage

// ResponseWithError
// @Description Error envelope for endpoints the provider talks to directly.
type ResponseWithError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
} // @Name _ResponseWithError

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ResponseWithMessage{
		Status:  StatusErr,
		Message: err.Error(),
	})
}

func notFound(c *gin.Context, err error) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusErr,
		Message: err.Error(),
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, ResponseWithMessage{
		Status:  StatusErr,
		Message: err.Error(),
	})
}

// providerError maps failures of calls that reach the WhatsApp Graph API.
func providerError(c *gin.Context, err error) {
	var apiErr *whatsapp.APIError

	switch {
	case errors.Is(err, apperrors.ErrWhatsAppNotConfigured):
		internalError(c, err)
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, ResponseWithMessage{
			Status:  StatusErr,
			Message: apiErr.Message,
		})
	default:
		internalError(c, err)
	}
}
