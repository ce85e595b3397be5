package route

import (
	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	ListMessages(c *gin.Context)
	GetMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
	SendTemplate(c *gin.Context)
	SendText(c *gin.Context)
	Stream(c *gin.Context)
}

func RegisterMessageRoutes(g *gin.RouterGroup, h MessageHandler) {
	g.GET("", h.ListMessages)
	g.GET("/ws", h.Stream)
	g.POST("/send", h.SendTemplate)
	g.POST("/send-text", h.SendText)
	g.GET("/:id", h.GetMessage)
	g.DELETE("/:id", h.DeleteMessage)
}
