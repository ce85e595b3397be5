package route

import (
	"github.com/gin-gonic/gin"
)

type WebhookHandler interface {
	Verify(c *gin.Context)
	Receive(c *gin.Context)
}

func RegisterWebhook(g *gin.RouterGroup, h WebhookHandler) {
	g.GET("", h.Verify)
	g.POST("", h.Receive)
}
