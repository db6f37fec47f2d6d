package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// MaxMultipartMemory caps in-memory multipart parsing (32 MB).
const MaxMultipartMemory = 32 << 20

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *ForgeryHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	router.MaxMultipartMemory = MaxMultipartMemory

	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		forgery := api.Group("/forgery")
		{
			forgery.POST("/analyze", h.Analyze)
			forgery.POST("/tokens", h.AnalyzeTokens)
			forgery.POST("/fields", h.ExtractFields)
		}
	}

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
