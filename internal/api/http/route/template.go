package route

import (
	"github.com/gin-gonic/gin"
)

type TemplateHandler interface {
	ListTemplates(c *gin.Context)
	GetTemplate(c *gin.Context)
	CreateTemplate(c *gin.Context)
	UpdateTemplate(c *gin.Context)
	DeleteTemplate(c *gin.Context)
	SyncTemplates(c *gin.Context)
}

func RegisterTemplateRoutes(g *gin.RouterGroup, h TemplateHandler) {
	g.GET("", h.ListTemplates)
	g.POST("", h.CreateTemplate)
	g.POST("/sync", h.SyncTemplates)
	g.GET("/:id", h.GetTemplate)
	g.PUT("/:id", h.UpdateTemplate)
	g.DELETE("/:id", h.DeleteTemplate)
}
