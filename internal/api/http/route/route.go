package route

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greengate-back/internal/api/http/handler"
	"greengate-back/internal/api/http/middleware"
	"greengate-back/internal/config"
)

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	healthHdl HealthHandler,
	webhookHdl WebhookHandler,
	configHdl ConfigHandler,
	messageHdl MessageHandler,
	templateHdl TemplateHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.HTTPServer.CORS))

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	router.GET("/", healthHdl.Info)

	healthPath := router.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	// Meta calls the webhook directly, so it sits outside the API key check.
	webhookPath := router.Group(cfg.Webhook.Path)
	RegisterWebhook(webhookPath, webhookHdl)

	basePath := router.Group(cfg.HTTPServer.BasePath, middleware.APIKeyAuth(cfg.HTTPServer.APIKeyHash))

	configPath := basePath.Group("/config")
	RegisterConfigRoutes(configPath, configHdl)

	messagePath := basePath.Group("/messages")
	RegisterMessageRoutes(messagePath, messageHdl)

	templatePath := basePath.Group("/templates")
	RegisterTemplateRoutes(templatePath, templateHdl)

	return router
}
