package safety

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/sync/errgroup"

	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
	"github.com/funwriting/ai-agents/internal/pkg/modeljson"
)

const imageSafetySystemInstruction = `You are an image content safety moderator for a children's educational platform.`

const imageDownloadTimeout = 30 * time.Second

const batchConcurrency = 4

// ImageEvaluator checks generated imagery before it reaches a child. Unlike
// the text evaluator it fails CLOSED: generated images are unreviewed by any
// human author, so under uncertainty the image is withheld.
type ImageEvaluator interface {
	EvaluateImage(ctx context.Context, imageURL string, ageGroup string, storyContext string) Verdict
	EvaluateBatch(ctx context.Context, imageURLs []string, ageGroup string, storyContext string) BatchResult
}

type imageEvaluator struct {
	log        *logger.Logger
	model      gemini.Client
	httpClient *http.Client
}

func NewImageEvaluator(log *logger.Logger, model gemini.Client) ImageEvaluator {
	return &imageEvaluator{
		log:        log.With("service", "ImageSafetyEvaluator"),
		model:      model,
		httpClient: &http.Client{Timeout: imageDownloadTimeout},
	}
}

func imageSafetyPrompt(ageGroup string, storyContext string) string {
	contextText := ""
	if strings.TrimSpace(storyContext) != "" {
		contextText = fmt.Sprintf("\n\nStory context: %s", storyContext)
	}
	return fmt.Sprintf(`Analyze this AI-generated image for a children's story (Age: %s).%s

Check the image for:
1. Violence or Graphic Content: Blood, weapons, fighting, scary imagery
2. Inappropriate Text: Profanity, offensive language in text or speech bubbles
3. Sexual/Adult Content: Inappropriate clothing, poses, or themes
4. Hate Symbols: Offensive symbols, gestures, or imagery
5. Disturbing Elements: Frightening or nightmare-inducing content
6. Age-Appropriateness: Is this suitable for %s year-olds?

Examine carefully: background details, text in bubbles/captions, character clothing/poses, objects, symbols, overall mood.

Respond with ONLY valid JSON in this EXACT format:
{
  "isSafe": true or false,
  "riskLevel": "none" | "low" | "medium" | "high" | "critical",
  "issues": [
    {
      "category": "violence" | "inappropriate_text" | "sexual_content" | "hate_symbols" | "disturbing" | "age_inappropriate",
      "severity": "low" | "medium" | "high",
      "description": "Detailed description of issue",
      "location": "Where in image (e.g., 'top-left corner', 'speech bubble')"
    }
  ],
  "recommendation": "approve" | "review" | "regenerate" | "block",
  "reasoning": "Detailed explanation of your decision",
  "visualDescription": "Brief description of what you see in the image"
}`, ageGroup, contextText, ageGroup)
}

func (e *imageEvaluator) EvaluateImage(ctx context.Context, imageURL string, ageGroup string, storyContext string) Verdict {
	e.log.Info("Image safety validation", "image_url", imageURL, "age_group", ageGroup)

	data, mime, err := e.download(ctx, imageURL)
	if err != nil {
		e.log.Warn("Image download failed, failing closed", "image_url", imageURL, "error", err)
		return e.failClosed(imageURL, ageGroup)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		e.log.Warn("Image undecodable, failing closed", "image_url", imageURL, "error", err)
		return e.failClosed(imageURL, ageGroup)
	}

	raw, err := e.model.GenerateTextWithImage(ctx, imageSafetySystemInstruction, imageSafetyPrompt(ageGroup, storyContext), data, mime)
	if err != nil {
		e.log.Warn("Image safety analysis failed, failing closed", "image_url", imageURL, "error", err)
		return e.failClosed(imageURL, ageGroup)
	}

	var payload verdictPayload
	if err := modeljson.ExtractInto(raw, &payload); err != nil {
		e.log.Warn("Image safety response unparseable, failing closed", "image_url", imageURL, "error", err)
		return e.failClosed(imageURL, ageGroup)
	}

	v := payload.toVerdict("Image appears appropriate")
	v.AgeGroup = ageGroup
	v.ImageURL = imageURL
	if !v.IsSafe {
		alert := payload.AlertMessage
		if alert == "" {
			alert = "⚠️ This image has been flagged and will be reviewed. It may contain content that isn't appropriate for this age group."
		}
		v.AlertMessage = strPtr(alert)
	}

	e.log.Info("Image safety validation complete",
		"image_url", imageURL,
		"is_safe", v.IsSafe,
		"risk_level", v.RiskLevel,
		"recommendation", v.Recommendation,
	)
	return v
}

// EvaluateBatch validates every URL with bounded concurrency. Results land
// at the same index as their input URL regardless of completion order.
func (e *imageEvaluator) EvaluateBatch(ctx context.Context, imageURLs []string, ageGroup string, storyContext string) BatchResult {
	e.log.Info("Batch image safety validation", "count", len(imageURLs))

	results := make([]Verdict, len(imageURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, u := range imageURLs {
		g.Go(func() error {
			results[i] = e.EvaluateImage(gctx, u, ageGroup, storyContext)
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{
		AllSafe:     true,
		TotalImages: len(imageURLs),
		Results:     results,
		Timestamp:   time.Now().UTC(),
	}
	for _, r := range results {
		if !r.IsSafe {
			batch.AllSafe = false
			batch.FlaggedImages++
		}
		batch.TotalIssues += len(r.Issues)
	}

	if !batch.AllSafe {
		e.log.Warn("Batch image check flagged images", "flagged", batch.FlaggedImages, "total", batch.TotalImages)
	}
	return batch
}

// failClosed withholds the image: unsafe, unknown risk, held for review.
func (e *imageEvaluator) failClosed(imageURL string, ageGroup string) Verdict {
	return Verdict{
		IsSafe:         false,
		RiskLevel:      RiskUnknown,
		Issues:         []Issue{},
		Recommendation: RecommendReview,
		Reasoning:      "Safety validation could not be completed.",
		AlertMessage:   strPtr("⚠️ Unable to verify image safety. This image will be held for manual review."),
		AgeGroup:       ageGroup,
		ImageURL:       imageURL,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *imageEvaluator) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrDownload, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: http %d", apperrors.ErrDownload, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrDownload, err)
	}
	mime := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}
