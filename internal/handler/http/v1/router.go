package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check доступен без ключа
	api.GET("/system/health", h.healthCheck)

	protected := api.Group("")
	protected.Use(APIKeyAuthMiddleware(h.cfg.APIKeys, h.logger))

	incidents := protected.Group("/incidents")
	{
		incidents.POST("", h.submitIncident)
		incidents.GET("/:id", h.getIncident)
		incidents.POST("/:id/acknowledge", h.acknowledgeIncident)
		incidents.GET("/:id/attempts", h.listAttempts)
	}

	protected.POST("/feeds/:id/status", h.updateFeedStatus)

	settings := protected.Group("/settings")
	{
		settings.GET("", h.getSettings)
		settings.PUT("", h.updateSettings)
		settings.POST("/test/:channel", h.testChannel)
	}
}

// RegisterWebsocket регистрирует канал живых событий
func (h *Handler) RegisterWebsocket(router gin.IRouter) {
	ws := router.Group("/ws")
	ws.Use(APIKeyAuthMiddleware(h.cfg.APIKeys, h.logger))
	ws.GET("", h.serveWS)
	ws.GET("/:feedId", h.serveWS)
}
