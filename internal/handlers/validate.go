package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/safety"
)

type ValidateImageRequest struct {
	ImageURL     string   `json:"imageUrl"`
	ImageURLs    []string `json:"imageUrls"`
	AgeGroup     string   `json:"ageGroup"`
	StoryContext string   `json:"storyContext"`
}

type ValidateHandler struct {
	log            *logger.Logger
	imageSafety    safety.ImageEvaluator
	includeDetails bool
}

func NewValidateHandler(log *logger.Logger, imageSafety safety.ImageEvaluator, includeDetails bool) *ValidateHandler {
	return &ValidateHandler{
		log:            log.With("handler", "ValidateHandler"),
		imageSafety:    imageSafety,
		includeDetails: includeDetails,
	}
}

// ValidateImage checks one image (imageUrl) or a batch (imageUrls). A flagged
// image is still HTTP 200: the verdict is the payload, not an error.
func (h *ValidateHandler) ValidateImage(c *gin.Context) {
	var req ValidateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", err, h.includeDetails)
		return
	}
	if strings.TrimSpace(req.AgeGroup) == "" {
		RespondError(c, http.StatusBadRequest, "ageGroup is required", nil, h.includeDetails)
		return
	}

	if len(req.ImageURLs) > 0 {
		batch := h.imageSafety.EvaluateBatch(c.Request.Context(), req.ImageURLs, req.AgeGroup, req.StoryContext)
		RespondOK(c, gin.H{
			"success":     batch.AllSafe,
			"isSafe":      batch.AllSafe,
			"blocked":     !batch.AllSafe,
			"safetyCheck": batch,
		})
		return
	}

	if strings.TrimSpace(req.ImageURL) == "" {
		RespondError(c, http.StatusBadRequest, "imageUrl or imageUrls is required", nil, h.includeDetails)
		return
	}

	verdict := h.imageSafety.EvaluateImage(c.Request.Context(), req.ImageURL, req.AgeGroup, req.StoryContext)
	payload := gin.H{
		"success":     verdict.IsSafe,
		"isSafe":      verdict.IsSafe,
		"blocked":     !verdict.IsSafe,
		"safetyCheck": verdict,
	}
	if verdict.AlertMessage != nil {
		payload["alertMessage"] = verdict.AlertMessage
	}
	RespondOK(c, payload)
}
