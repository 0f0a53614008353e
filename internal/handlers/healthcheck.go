package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "fun-writing-ai-agents"

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

func ServiceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     serviceName,
		"description": "Moderation and generation pipeline for student creative writing",
		"endpoints": []string{
			"POST /analyze-writing",
			"POST /generate-image",
			"POST /generate-video",
			"POST /validate-image",
			"GET /health",
		},
	})
}
