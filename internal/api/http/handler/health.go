package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greengate-back/internal/model"
)

type HealthService interface {
	Check(ctx context.Context) *model.HealthStatus
}

type HealthHandler struct {
	log  *zap.Logger
	svc  HealthService
	info model.ServiceInfo
}

func NewHealthHandler(log *zap.Logger, svc HealthService, info model.ServiceInfo) *HealthHandler {
	return &HealthHandler{
		log:  log,
		svc:  svc,
		info: info,
	}
}

// Ping
// @Summary Liveness probe.
// @Description Returns "pong".
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithMessage "Success"
// @Router /health/ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

// Health
// @Summary Readiness probe.
// @Description Reports "ok" or "degraded" depending on the database.
// @Tags Health
// @Produce json
// @Success 200 {object} model.HealthStatus "Healthy"
// @Failure 503 {object} model.HealthStatus "Database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.svc.Check(c.Request.Context())

	code := http.StatusOK
	if status.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}

// Info
// @Summary Service name and version.
// @Tags Health
// @Produce json
// @Success 200 {object} model.ServiceInfo "Success"
// @Router / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
