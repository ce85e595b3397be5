package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

const forwardedProtoHeader = "X-Forwarded-Proto"

type ConfigService interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SafeConfig(ctx context.Context) (*model.SafeConfig, error)
	SetWhatsAppConfig(ctx context.Context, req model.SetWhatsAppConfigRequest) error
	WebhookInfo(ctx context.Context, derivedURL string) (*model.WebhookInfo, error)
	TestWebhook(ctx context.Context) (*model.WebhookTestResult, error)
}

type ConfigHandler struct {
	log         *zap.Logger
	svc         ConfigService
	webhookPath string
}

func NewConfigHandler(log *zap.Logger, svc ConfigService, webhookPath string) *ConfigHandler {
	return &ConfigHandler{
		log:         log,
		svc:         svc,
		webhookPath: webhookPath,
	}
}

// GetConfig
// @Summary WhatsApp configuration without secrets.
// @Tags Config
// @Produce json
// @Success 200 {object} ResponseWithData{data=model.SafeConfig} "Success"
// @Router /config [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	safe, err := h.svc.SafeConfig(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to read configuration", zap.Error(err))
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   safe,
	})
}

// SetWhatsAppConfig
// @Summary Store WhatsApp credentials.
// @Description Generates a verify token when none is given.
// @Tags Config
// @Accept json
// @Produce json
// @Param payload body model.SetWhatsAppConfigRequest true "Credentials"
// @Success 200 {object} ResponseWithMessage "Saved"
// @Failure 400 {object} ResponseWithMessage "accessToken and phoneNumberId are required"
// @Router /config/whatsapp [post]
func (h *ConfigHandler) SetWhatsAppConfig(c *gin.Context) {
	var req model.SetWhatsAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SetWhatsAppConfig(c.Request.Context(), req); err != nil {
		h.log.Error("Failed to save WhatsApp configuration", zap.Error(err))
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "WhatsApp configuration saved",
	})
}

// GetValue
// @Summary Read one configuration value.
// @Tags Config
// @Produce json
// @Param key path string true "Configuration key"
// @Success 200 {object} ResponseWithData{data=model.ConfigEntry} "Success"
// @Failure 404 {object} ResponseWithMessage "Key not found"
// @Router /config/{key} [get]
func (h *ConfigHandler) GetValue(c *gin.Context) {
	var uri model.ConfigKeyPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return
	}

	value, err := h.svc.Get(c.Request.Context(), uri.Key)
	if err != nil {
		if errors.Is(err, apperrors.ErrConfigKeyNotFound) {
			notFound(c, err)
			return
		}

		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.ConfigEntry{Key: uri.Key, Value: value},
	})
}

// SetValue
// @Summary Write one configuration value.
// @Tags Config
// @Accept json
// @Produce json
// @Param key path string true "Configuration key"
// @Param payload body model.SetConfigValueRequest true "Value"
// @Success 200 {object} ResponseWithMessage "Saved"
// @Failure 400 {object} ResponseWithMessage "Value is required"
// @Router /config/{key} [post]
func (h *ConfigHandler) SetValue(c *gin.Context) {
	var uri model.ConfigKeyPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return
	}

	var req model.SetConfigValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.Set(c.Request.Context(), uri.Key, req.Value); err != nil {
		h.log.Error("Failed to save configuration value", zap.String("key", uri.Key), zap.Error(err))
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "configuration saved",
	})
}

// WebhookInfo
// @Summary Values to paste into the Meta app dashboard.
// @Tags Config
// @Produce json
// @Success 200 {object} ResponseWithData{data=model.WebhookInfo} "Success"
// @Router /config/webhook/info [get]
func (h *ConfigHandler) WebhookInfo(c *gin.Context) {
	info, err := h.svc.WebhookInfo(c.Request.Context(), h.derivedWebhookURL(c))
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   info,
	})
}

// TestWebhook
// @Summary Check that the webhook can be verified.
// @Tags Config
// @Produce json
// @Success 200 {object} ResponseWithData{data=model.WebhookTestResult} "Success"
// @Failure 400 {object} ResponseWithMessage "Verify token not configured"
// @Router /config/webhook/test [post]
func (h *ConfigHandler) TestWebhook(c *gin.Context) {
	res, err := h.svc.TestWebhook(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrVerifyTokenNotSet) {
			badRequest(c, err)
			return
		}

		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   res,
	})
}

func (h *ConfigHandler) derivedWebhookURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader(forwardedProtoHeader); proto != "" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host + h.webhookPath
}
