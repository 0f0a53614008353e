package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/services"
)

type WritingHandler struct {
	log            *logger.Logger
	analysis       services.WritingAnalysisService
	includeDetails bool
}

func NewWritingHandler(log *logger.Logger, analysis services.WritingAnalysisService, includeDetails bool) *WritingHandler {
	return &WritingHandler{
		log:            log.With("handler", "WritingHandler"),
		analysis:       analysis,
		includeDetails: includeDetails,
	}
}

// AnalyzeWriting runs the safety-gated evaluation. A safety block is a
// successful HTTP exchange (200 with blocked:true); only infrastructure
// failures surface as 500.
func (h *WritingHandler) AnalyzeWriting(c *gin.Context) {
	var req services.AnalyzeWritingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", err, h.includeDetails)
		return
	}
	if strings.TrimSpace(req.StudentWriting) == "" {
		RespondError(c, http.StatusBadRequest, "studentWriting is required", nil, h.includeDetails)
		return
	}
	if strings.TrimSpace(req.AgeGroup) == "" {
		RespondError(c, http.StatusBadRequest, "ageGroup is required", nil, h.includeDetails)
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Writing analysis failed", "submission_id", req.SubmissionID, "error", err)
		RespondError(c, http.StatusInternalServerError, "writing analysis failed", err, h.includeDetails)
		return
	}
	RespondOK(c, result)
}
