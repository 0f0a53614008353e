package services

import (
	"context"
	"strings"
	"time"

	"github.com/funwriting/ai-agents/internal/clients/gcp"
	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/media"
	"github.com/funwriting/ai-agents/internal/repos"
	"github.com/funwriting/ai-agents/internal/safety"
	"github.com/funwriting/ai-agents/internal/types"
)

type GenerateImageRequest struct {
	StudentWriting string `json:"studentWriting"`
	AgeGroup       string `json:"ageGroup"`
	SubmissionID   string `json:"submissionId"`
	UserID         string `json:"userId"`
	ImageIndex     int    `json:"imageIndex"`
	ImageStyle     string `json:"imageStyle"`
}

type GenerateImageResult struct {
	Success      bool           `json:"success"`
	Blocked      bool           `json:"blocked,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Prompt       string         `json:"prompt,omitempty"`
	ImageIndex   int            `json:"imageIndex"`
	Style        string         `json:"imageStyle"`
	SafetyCheck  safety.Verdict `json:"safetyCheck"`
	AlertMessage *string        `json:"alertMessage,omitempty"`
}

type GenerateVideoRequest struct {
	StudentWriting string `json:"studentWriting"`
	AgeGroup       string `json:"ageGroup"`
	SubmissionID   string `json:"submissionId"`
	UserID         string `json:"userId"`
	VideoStyle     string `json:"videoStyle"`
}

type GenerateVideoResult struct {
	Success         bool   `json:"success"`
	VideoURL        string `json:"videoUrl"`
	Prompt          string `json:"prompt"`
	Style           string `json:"videoStyle"`
	DurationSeconds int    `json:"duration"`
}

// MediaGenerationService runs the prompt -> generate -> upload -> validate ->
// persist pipeline for story media.
type MediaGenerationService interface {
	GenerateImage(ctx context.Context, req GenerateImageRequest) (GenerateImageResult, error)
	GenerateVideo(ctx context.Context, req GenerateVideoRequest) (GenerateVideoResult, error)
}

type mediaGenerationService struct {
	log               *logger.Logger
	prompts           media.PromptGenerator
	model             gemini.Client
	bucket            gcp.BucketService
	imageSafety       safety.ImageEvaluator
	mediaRepo         repos.MediaRecordRepo
	enableImageSafety bool
}

func NewMediaGenerationService(
	log *logger.Logger,
	prompts media.PromptGenerator,
	model gemini.Client,
	bucket gcp.BucketService,
	imageSafety safety.ImageEvaluator,
	mediaRepo repos.MediaRecordRepo,
	enableImageSafety bool,
) MediaGenerationService {
	return &mediaGenerationService{
		log:               log.With("service", "MediaGenerationService"),
		prompts:           prompts,
		model:             model,
		bucket:            bucket,
		imageSafety:       imageSafety,
		mediaRepo:         mediaRepo,
		enableImageSafety: enableImageSafety,
	}
}

func (s *mediaGenerationService) GenerateImage(ctx context.Context, req GenerateImageRequest) (GenerateImageResult, error) {
	style := req.ImageStyle
	if style == "" {
		style = media.StyleStandard
	}
	index := req.ImageIndex
	if index < 1 {
		index = 1
	}
	s.log.Info("Image generation",
		"submission_id", req.SubmissionID,
		"image_index", index,
		"style", style,
	)

	prompt, err := s.prompts.GenerateImagePrompt(ctx, req.StudentWriting, req.AgeGroup, index, style)
	if err != nil {
		return GenerateImageResult{}, err
	}

	generated, err := s.model.GenerateImage(ctx, prompt, media.AspectRatioForStyle(style))
	if err != nil {
		return GenerateImageResult{}, err
	}

	upload, err := s.bucket.UploadImage(ctx, req.SubmissionID, index, generated.Bytes, formatFromMime(generated.MimeType, "png"))
	if err != nil {
		return GenerateImageResult{}, err
	}

	verdict := s.validateImage(ctx, upload.URL, req.AgeGroup, req.StudentWriting)

	s.persistMedia(ctx, req.SubmissionID, req.UserID, "image", upload.URL, prompt, style)

	result := GenerateImageResult{
		Success:     verdict.IsSafe,
		ImageURL:    upload.URL,
		Prompt:      prompt,
		ImageIndex:  index,
		Style:       style,
		SafetyCheck: verdict,
	}
	if !verdict.IsSafe {
		result.Blocked = true
		result.AlertMessage = verdict.AlertMessage
	}
	return result, nil
}

func (s *mediaGenerationService) GenerateVideo(ctx context.Context, req GenerateVideoRequest) (GenerateVideoResult, error) {
	style := req.VideoStyle
	if style == "" {
		style = media.VideoStyleAnimation
	}
	s.log.Info("Video generation", "submission_id", req.SubmissionID, "style", style)

	prompt, err := s.prompts.GenerateVideoPrompt(ctx, req.StudentWriting, req.AgeGroup, style)
	if err != nil {
		return GenerateVideoResult{}, err
	}

	generated, err := s.model.GenerateVideo(ctx, prompt)
	if err != nil {
		return GenerateVideoResult{}, err
	}

	upload, err := s.bucket.UploadVideo(ctx, req.SubmissionID, generated.Bytes, formatFromMime(generated.MimeType, "mp4"))
	if err != nil {
		return GenerateVideoResult{}, err
	}

	s.persistMedia(ctx, req.SubmissionID, req.UserID, "video", upload.URL, prompt, style)

	return GenerateVideoResult{
		Success:         true,
		VideoURL:        upload.URL,
		Prompt:          prompt,
		Style:           style,
		DurationSeconds: generated.DurationSeconds,
	}, nil
}

// validateImage runs the post-upload safety check, or a synthetic pass when
// the check is disabled by configuration.
func (s *mediaGenerationService) validateImage(ctx context.Context, imageURL, ageGroup, storyContext string) safety.Verdict {
	if !s.enableImageSafety {
		return safety.Verdict{
			IsSafe:         true,
			RiskLevel:      safety.RiskNone,
			Issues:         []safety.Issue{},
			Recommendation: safety.RecommendApprove,
			Reasoning:      "Safety validation disabled",
			AgeGroup:       ageGroup,
			ImageURL:       imageURL,
			Timestamp:      time.Now().UTC(),
		}
	}
	return s.imageSafety.EvaluateImage(ctx, imageURL, ageGroup, storyContext)
}

func (s *mediaGenerationService) persistMedia(ctx context.Context, submissionID, userID, mediaType, url, prompt, style string) {
	if s.mediaRepo == nil {
		s.log.Warn("No database configured, skipping media persistence", "submission_id", submissionID)
		return
	}
	record := &types.MediaRecord{
		SubmissionID: submissionID,
		UserID:       userID,
		MediaType:    mediaType,
		URL:          url,
		Prompt:       prompt,
		Style:        style,
	}
	if _, err := s.mediaRepo.Create(ctx, nil, record); err != nil {
		s.log.Error("Failed to persist media record", "submission_id", submissionID, "error", err)
		return
	}
	s.log.Info("Media record persisted", "submission_id", submissionID, "media_type", mediaType)
}

func formatFromMime(mime, fallback string) string {
	if i := strings.IndexByte(mime, '/'); i >= 0 && i+1 < len(mime) {
		return mime[i+1:]
	}
	return fallback
}
