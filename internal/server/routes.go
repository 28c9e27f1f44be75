package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/diff", h.HandleDiff)

	events := rg.Group("/diff-events")
	{
		events.POST("", h.HandleCreateEvent)
		events.GET("/pending", h.HandlePendingEvent)
		events.GET("/:id", h.HandleGetEvent)
		events.DELETE("/:id", h.HandleDiscardEvent)
		events.PATCH("/:id/lines/:lineId", h.HandleLineDecision)
		events.POST("/:id/finalize", h.HandleFinalize)
		events.GET("/:id/preview", h.HandlePreview)
	}

	files := rg.Group("/files")
	{
		files.PUT("/:id/content", h.HandleUpdateContent)
		files.GET("/:id/versions", h.HandleVersions)
		files.GET("/:id/versions/:versionId", h.HandleVersion)
	}
}
