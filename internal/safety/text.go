package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/pkg/modeljson"
)

const textSafetySystemInstruction = `You are a content safety moderator for a children's educational platform.
Analyze content for harmful, inappropriate, or unsafe material.`

// TextEvaluator checks student text for safety. It never returns an error:
// when the check itself cannot run it fails OPEN, letting the submission
// through flagged for manual review. An inability to run the safety check
// must not silently block a legitimate child's submission.
type TextEvaluator interface {
	EvaluateText(ctx context.Context, content string, ageGroup string) Verdict
}

type textEvaluator struct {
	log   *logger.Logger
	model gemini.Client
}

func NewTextEvaluator(log *logger.Logger, model gemini.Client) TextEvaluator {
	return &textEvaluator{
		log:   log.With("service", "TextSafetyEvaluator"),
		model: model,
	}
}

func textSafetyPrompt(content string, ageGroup string) string {
	return fmt.Sprintf(`Analyze this content for safety issues for age group %s:

Content: %q

Check for:
1. Violence or threats
2. Sexual or inappropriate content
3. Hate speech or discrimination
4. Profanity or inappropriate language
5. Dangerous activities or self-harm
6. Personal information disclosure
7. Age-appropriateness

Respond with ONLY valid JSON in this exact format:
{
  "isSafe": true or false,
  "riskLevel": "none" | "low" | "medium" | "high" | "critical",
  "issues": [
    {
      "category": "violence" | "sexual" | "hate_speech" | "profanity" | "dangerous" | "privacy" | "age_inappropriate",
      "severity": "low" | "medium" | "high",
      "description": "Detailed description of the issue"
    }
  ],
  "recommendation": "approve" | "review" | "block",
  "reasoning": "Detailed explanation of the safety decision"
}`, ageGroup, content)
}

func (e *textEvaluator) EvaluateText(ctx context.Context, content string, ageGroup string) Verdict {
	e.log.Info("Content safety check", "age_group", ageGroup, "content_length", len(content))

	raw, err := e.model.GenerateText(ctx, textSafetySystemInstruction, textSafetyPrompt(content, ageGroup))
	if err != nil {
		e.log.Warn("Content safety check could not run, failing open", "error", err)
		return e.failOpen(ageGroup)
	}

	var payload verdictPayload
	if err := modeljson.ExtractInto(raw, &payload); err != nil {
		e.log.Warn("Content safety response unparseable, failing open", "error", err)
		return e.failOpen(ageGroup)
	}

	v := payload.toVerdict("Content appears safe")
	v.AgeGroup = ageGroup
	if !v.IsSafe {
		alert := payload.AlertMessage
		if alert == "" {
			alert = flaggedContentAlert(len(v.Issues))
		}
		v.AlertMessage = strPtr(alert)
	}

	e.log.Info("Content safety check complete",
		"is_safe", v.IsSafe,
		"risk_level", v.RiskLevel,
		"recommendation", v.Recommendation,
		"issues", len(v.Issues),
	)
	return v
}

// failOpen allows the content through with an unknown risk level and a
// review recommendation. AlertMessage stays nil because the verdict is safe.
func (e *textEvaluator) failOpen(ageGroup string) Verdict {
	return Verdict{
		IsSafe:         true,
		RiskLevel:      RiskUnknown,
		Issues:         []Issue{},
		Recommendation: RecommendReview,
		Reasoning:      "Safety check temporarily unavailable. Content allowed pending manual review.",
		AgeGroup:       ageGroup,
		Timestamp:      time.Now().UTC(),
	}
}

func flaggedContentAlert(issueCount int) string {
	noun := "issues"
	if issueCount == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("⚠️ This content has been flagged for review. We found %d potential %s that may not be appropriate for this age group.", issueCount, noun)
}
