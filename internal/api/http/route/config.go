package route

import (
	"github.com/gin-gonic/gin"
)

type ConfigHandler interface {
	GetConfig(c *gin.Context)
	SetWhatsAppConfig(c *gin.Context)
	GetValue(c *gin.Context)
	SetValue(c *gin.Context)
	WebhookInfo(c *gin.Context)
	TestWebhook(c *gin.Context)
}

func RegisterConfigRoutes(g *gin.RouterGroup, h ConfigHandler) {
	g.GET("", h.GetConfig)
	g.POST("/whatsapp", h.SetWhatsAppConfig)
	g.GET("/webhook/info", h.WebhookInfo)
	g.POST("/webhook/test", h.TestWebhook)
	g.GET("/:key", h.GetValue)
	g.POST("/:key", h.SetValue)
}
