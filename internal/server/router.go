package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/funwriting/ai-agents/internal/handlers"
	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/middleware"
)

type RouterConfig struct {
	Log             *logger.Logger
	WritingHandler  *handlers.WritingHandler
	MediaHandler    *handlers.MediaHandler
	ValidateHandler *handlers.ValidateHandler
	Production      bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/", handlers.ServiceInfo)

	router.POST("/analyze-writing", cfg.WritingHandler.AnalyzeWriting)
	router.POST("/generate-image", cfg.MediaHandler.GenerateImage)
	router.POST("/generate-video", cfg.MediaHandler.GenerateVideo)
	router.POST("/validate-image", cfg.ValidateHandler.ValidateImage)

	return router
}
