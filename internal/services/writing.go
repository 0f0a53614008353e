package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/repos"
	"github.com/funwriting/ai-agents/internal/safety"
	"github.com/funwriting/ai-agents/internal/scoring"
	"github.com/funwriting/ai-agents/internal/types"
)

type AnalyzeWritingRequest struct {
	StudentWriting string `json:"studentWriting"`
	OriginalPrompt string `json:"originalPrompt"`
	AgeGroup       string `json:"ageGroup"`
	SubmissionID   string `json:"submissionId"`
	UserID         string `json:"userId"`
}

type AnalyzeWritingResult struct {
	Success        bool                  `json:"success"`
	Blocked        bool                  `json:"blocked,omitempty"`
	Score          int                   `json:"score,omitempty"`
	Feedback       *scoring.Feedback     `json:"feedback,omitempty"`
	SafetyCheck    safety.Verdict        `json:"safetyCheck"`
	AlertMessage   *string               `json:"alertMessage,omitempty"`
	Recommendation safety.Recommendation `json:"recommendation,omitempty"`
}

// WritingAnalysisService gates a submission on the text safety check, then
// grades it. Blocked content short-circuits: the scorer never sees it.
type WritingAnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeWritingRequest) (AnalyzeWritingResult, error)
}

type writingAnalysisService struct {
	log          *logger.Logger
	textSafety   safety.TextEvaluator
	scorer       scoring.Scorer
	feedbackRepo repos.SubmissionFeedbackRepo
}

// NewWritingAnalysisService wires the analysis pipeline. feedbackRepo may be
// nil when no database is configured; persistence is then skipped.
func NewWritingAnalysisService(
	log *logger.Logger,
	textSafety safety.TextEvaluator,
	scorer scoring.Scorer,
	feedbackRepo repos.SubmissionFeedbackRepo,
) WritingAnalysisService {
	return &writingAnalysisService{
		log:          log.With("service", "WritingAnalysisService"),
		textSafety:   textSafety,
		scorer:       scorer,
		feedbackRepo: feedbackRepo,
	}
}

func (s *writingAnalysisService) Analyze(ctx context.Context, req AnalyzeWritingRequest) (AnalyzeWritingResult, error) {
	s.log.Info("Writing analysis",
		"submission_id", req.SubmissionID,
		"user_id", req.UserID,
		"age_group", req.AgeGroup,
		"writing_length", len(req.StudentWriting),
	)

	verdict := s.textSafety.EvaluateText(ctx, req.StudentWriting, req.AgeGroup)
	if !verdict.IsSafe {
		s.log.Warn("Content blocked by safety check",
			"submission_id", req.SubmissionID,
			"risk_level", verdict.RiskLevel,
		)
		return AnalyzeWritingResult{
			Success:        false,
			Blocked:        true,
			SafetyCheck:    verdict,
			AlertMessage:   verdict.AlertMessage,
			Recommendation: verdict.Recommendation,
		}, nil
	}

	feedback, err := s.scorer.Evaluate(ctx, req.StudentWriting, req.OriginalPrompt, req.AgeGroup, req.SubmissionID)
	if err != nil {
		return AnalyzeWritingResult{}, err
	}

	s.persistFeedback(ctx, req, feedback)

	return AnalyzeWritingResult{
		Success:     true,
		Score:       feedback.TotalScore,
		Feedback:    &feedback,
		SafetyCheck: verdict,
	}, nil
}

// persistFeedback is best-effort: a storage failure is logged but never
// fails an analysis the student is waiting on.
func (s *writingAnalysisService) persistFeedback(ctx context.Context, req AnalyzeWritingRequest, feedback scoring.Feedback) {
	if s.feedbackRepo == nil {
		s.log.Warn("No database configured, skipping feedback persistence", "submission_id", req.SubmissionID)
		return
	}
	payload, err := json.Marshal(feedback)
	if err != nil {
		s.log.Error("Failed to encode feedback for persistence", "submission_id", req.SubmissionID, "error", err)
		return
	}
	record := &types.SubmissionFeedback{
		SubmissionID: req.SubmissionID,
		UserID:       req.UserID,
		Score:        feedback.TotalScore,
		Feedback:     datatypes.JSON(payload),
	}
	if _, err := s.feedbackRepo.Create(ctx, nil, record); err != nil {
		s.log.Error("Failed to persist feedback", "submission_id", req.SubmissionID, "error", err)
		return
	}
	s.log.Info("Feedback persisted", "submission_id", req.SubmissionID, "score", feedback.TotalScore)
}
