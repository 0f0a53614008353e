package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/services"
)

type MediaHandler struct {
	log            *logger.Logger
	media          services.MediaGenerationService
	includeDetails bool
}

func NewMediaHandler(log *logger.Logger, media services.MediaGenerationService, includeDetails bool) *MediaHandler {
	return &MediaHandler{
		log:            log.With("handler", "MediaHandler"),
		media:          media,
		includeDetails: includeDetails,
	}
}

func (h *MediaHandler) GenerateImage(c *gin.Context) {
	var req services.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", err, h.includeDetails)
		return
	}
	if strings.TrimSpace(req.StudentWriting) == "" {
		RespondError(c, http.StatusBadRequest, "studentWriting is required", nil, h.includeDetails)
		return
	}

	result, err := h.media.GenerateImage(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Image generation failed", "submission_id", req.SubmissionID, "error", err)
		RespondError(c, http.StatusInternalServerError, "image generation failed", err, h.includeDetails)
		return
	}
	RespondOK(c, result)
}

func (h *MediaHandler) GenerateVideo(c *gin.Context) {
	var req services.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", err, h.includeDetails)
		return
	}
	if strings.TrimSpace(req.StudentWriting) == "" {
		RespondError(c, http.StatusBadRequest, "studentWriting is required", nil, h.includeDetails)
		return
	}

	result, err := h.media.GenerateVideo(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Video generation failed", "submission_id", req.SubmissionID, "error", err)
		RespondError(c, http.StatusInternalServerError, "video generation failed", err, h.includeDetails)
		return
	}
	RespondOK(c, result)
}
