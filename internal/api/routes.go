package api

import (
	"github.com/gin-gonic/gin"
)

func InitRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", h.HealthHandler)

	// API
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/parse", h.ParseHandler)

		apiGroup.POST("/batch/run", h.RunBatchHandler)
		apiGroup.GET("/batch/status", h.BatchStatusHandler)

		// SSE
		apiGroup.GET("/events", h.SSEHandler)
	}
}

// NewRouter builds the engine with the middlewares the server runs with.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	InitRoutes(r, h)
	return r
}
