package app

import (
	"fmt"

	"github.com/funwriting/ai-agents/internal/clients/gcp"
	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/media"
	"github.com/funwriting/ai-agents/internal/safety"
	"github.com/funwriting/ai-agents/internal/scoring"
	"github.com/funwriting/ai-agents/internal/services"
)

type Services struct {
	Gemini      gemini.Client
	Bucket      gcp.BucketService
	TextSafety  safety.TextEvaluator
	ImageSafety safety.ImageEvaluator
	Scorer      scoring.Scorer
	Prompts     media.PromptGenerator
	Writing     services.WritingAnalysisService
	Media       services.MediaGenerationService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init gemini client: %w", err)
	}

	bucket, err := gcp.NewBucketService(log, cfg.BucketName)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	textSafety := safety.NewTextEvaluator(log, geminiClient)
	imageSafety := safety.NewImageEvaluator(log, geminiClient)
	scorer := scoring.NewScorer(log, geminiClient)
	prompts := media.NewPromptGenerator(log, geminiClient)

	writing := services.NewWritingAnalysisService(log, textSafety, scorer, reposet.SubmissionFeedback)
	mediaGen := services.NewMediaGenerationService(log, prompts, geminiClient, bucket, imageSafety, reposet.MediaRecord, cfg.EnableImageSafety)

	return Services{
		Gemini:      geminiClient,
		Bucket:      bucket,
		TextSafety:  textSafety,
		ImageSafety: imageSafety,
		Scorer:      scorer,
		Prompts:     prompts,
		Writing:     writing,
		Media:       mediaGen,
	}, nil
}
