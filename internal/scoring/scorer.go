// Package scoring evaluates student writing across four 25-point dimensions
// and assembles the feedback payload the backend stores and shows the child.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
	"github.com/funwriting/ai-agents/internal/pkg/modeljson"
)

const scoringSystemInstruction = `You are an encouraging educational AI evaluating student writing.
Provide comprehensive, detailed feedback that is constructive and age-appropriate.`

const maxDimensionScore = 25

// Dimension defaults applied when the model omits a score. Mid-range values
// keep a dropped field from reading as a failing grade.
const (
	defaultGrammarScore    = 15
	defaultSpellingScore   = 18
	defaultRelevanceScore  = 16
	defaultCreativityScore = 17
)

// Breakdown holds the per-dimension scores, each clamped to [0, 25].
type Breakdown struct {
	Grammar    int `json:"grammar"`
	Spelling   int `json:"spelling"`
	Relevance  int `json:"relevance"`
	Creativity int `json:"creativity"`
}

// Feedback is the full evaluation result. TotalScore is always the sum of
// the breakdown, recomputed locally and never trusted from the model.
type Feedback struct {
	TotalScore          int       `json:"totalScore"`
	Breakdown           Breakdown `json:"breakdown"`
	GrammarFeedback     string    `json:"grammarFeedback"`
	SpellingFeedback    string    `json:"spellingFeedback"`
	RelevanceFeedback   string    `json:"relevanceFeedback"`
	CreativityFeedback  string    `json:"creativityFeedback"`
	Strengths           []string  `json:"strengths"`
	AreasForImprovement []string  `json:"areasForImprovement"`
	GeneralComment      string    `json:"generalComment"`
	NextSteps           []string  `json:"nextSteps"`
	SubmissionID        string    `json:"submissionId"`
	Timestamp           time.Time `json:"timestamp"`
}

// Scorer grades a submission. Unlike the safety evaluators it has no
// fallback verdict: a grade that cannot be computed is an error.
type Scorer interface {
	Evaluate(ctx context.Context, studentWriting, originalPrompt, ageGroup, submissionID string) (Feedback, error)
}

type scorer struct {
	log   *logger.Logger
	model gemini.Client
}

func NewScorer(log *logger.Logger, model gemini.Client) Scorer {
	return &scorer{
		log:   log.With("service", "WritingScorer"),
		model: model,
	}
}

func evaluationPrompt(studentWriting, originalPrompt, ageGroup string) string {
	return fmt.Sprintf(`Evaluate this student's writing (Age: %s).

**Original Writing Prompt**:
%q

**Student Writing**:
%q

Evaluate across 4 dimensions (each out of 25 points, total 100):

**1. GRAMMAR & SENTENCE STRUCTURE (0-25 points)**
- Correct sentence structure (subject, verb, object)
- Appropriate use of punctuation
- Varied sentence types and lengths
- Age-appropriate complexity

**2. SPELLING & VOCABULARY (0-25 points)**
- Spelling accuracy of common words
- Spelling accuracy of challenging words
- Overall clarity despite any errors
- Age-appropriate vocabulary usage

**3. RELEVANCE & CONTENT (0-25 points)**
- Addresses the core topic of the prompt
- Includes required elements or instructions
- Stays on topic throughout
- Shows understanding of the prompt's intent

**4. CREATIVITY & ORIGINALITY (0-25 points)**
- Original ideas and unique perspectives
- Imaginative descriptions and imagery
- Creative problem-solving in the narrative
- Unexpected or interesting twists
- Use of descriptive and figurative language

Respond with ONLY valid JSON in this EXACT format:
{
  "grammar": {
    "score": 20,
    "issues": ["specific issue 1", "specific issue 2"],
    "feedback": "detailed feedback on grammar and sentence structure"
  },
  "spelling": {
    "score": 22,
    "misspelledWords": ["word1", "word2"],
    "feedback": "detailed feedback on spelling and vocabulary"
  },
  "relevance": {
    "score": 18,
    "addressed": ["aspect 1 they covered", "aspect 2 they covered"],
    "missing": ["aspect they missed"],
    "feedback": "detailed feedback on how well they addressed the prompt"
  },
  "creativity": {
    "score": 19,
    "creativeElements": ["creative element 1", "creative element 2"],
    "feedback": "detailed feedback on creativity and originality"
  },
  "strengths": ["strength 1", "strength 2", "strength 3"],
  "areasForImprovement": ["area 1", "area 2"],
  "generalComment": "encouraging overall comment on their writing",
  "nextSteps": ["actionable step 1", "actionable step 2", "actionable step 3"]
}

Be specific, encouraging, and age-appropriate in all feedback.`, ageGroup, originalPrompt, studentWriting)
}

// Wire shapes for the evaluation response. Scores are pointers so an
// omitted score takes the dimension default instead of zero.
type dimensionPayload struct {
	Score    *int   `json:"score"`
	Feedback string `json:"feedback"`
}

type evaluationPayload struct {
	Grammar             dimensionPayload `json:"grammar"`
	Spelling            dimensionPayload `json:"spelling"`
	Relevance           dimensionPayload `json:"relevance"`
	Creativity          dimensionPayload `json:"creativity"`
	Strengths           []string         `json:"strengths"`
	AreasForImprovement []string         `json:"areasForImprovement"`
	GeneralComment      string           `json:"generalComment"`
	NextSteps           []string         `json:"nextSteps"`
}

func (s *scorer) Evaluate(ctx context.Context, studentWriting, originalPrompt, ageGroup, submissionID string) (Feedback, error) {
	s.log.Info("Evaluating writing",
		"submission_id", submissionID,
		"age_group", ageGroup,
		"writing_length", len(studentWriting),
	)

	raw, err := s.model.GenerateText(ctx, scoringSystemInstruction, evaluationPrompt(studentWriting, originalPrompt, ageGroup))
	if err != nil {
		return Feedback{}, fmt.Errorf("%w: %w", apperrors.ErrEvaluationFailed, err)
	}

	var payload evaluationPayload
	if err := modeljson.ExtractInto(raw, &payload); err != nil {
		return Feedback{}, fmt.Errorf("%w: %w", apperrors.ErrEvaluationFailed, err)
	}

	breakdown := Breakdown{
		Grammar:    clampScore(payload.Grammar.Score, defaultGrammarScore),
		Spelling:   clampScore(payload.Spelling.Score, defaultSpellingScore),
		Relevance:  clampScore(payload.Relevance.Score, defaultRelevanceScore),
		Creativity: clampScore(payload.Creativity.Score, defaultCreativityScore),
	}
	total := breakdown.Grammar + breakdown.Spelling + breakdown.Relevance + breakdown.Creativity

	fb := Feedback{
		TotalScore:          total,
		Breakdown:           breakdown,
		GrammarFeedback:     orDefault(payload.Grammar.Feedback, "Good grammar overall"),
		SpellingFeedback:    orDefault(payload.Spelling.Feedback, "Good spelling overall"),
		RelevanceFeedback:   orDefault(payload.Relevance.Feedback, "Good relevance overall"),
		CreativityFeedback:  orDefault(payload.Creativity.Feedback, "Good creativity overall"),
		Strengths:           emptyIfNil(payload.Strengths),
		AreasForImprovement: emptyIfNil(payload.AreasForImprovement),
		GeneralComment:      orDefault(payload.GeneralComment, GeneralComment(total)),
		NextSteps:           emptyIfNil(payload.NextSteps),
		SubmissionID:        submissionID,
		Timestamp:           time.Now().UTC(),
	}

	s.log.Info("Evaluation complete",
		"submission_id", submissionID,
		"total_score", total,
		"grammar", breakdown.Grammar,
		"spelling", breakdown.Spelling,
		"relevance", breakdown.Relevance,
		"creativity", breakdown.Creativity,
	)
	return fb, nil
}

func clampScore(score *int, fallback int) int {
	v := fallback
	if score != nil {
		v = *score
	}
	if v < 0 {
		return 0
	}
	if v > maxDimensionScore {
		return maxDimensionScore
	}
	return v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GeneralComment maps a total score to the encouragement band shown when the
// model supplies no overall comment of its own.
func GeneralComment(score int) string {
	switch {
	case score >= 90:
		return "🌟 Excellent work! Your writing is outstanding. You demonstrate strong skills across all areas."
	case score >= 75:
		return "👏 Great job! Your writing shows solid skills and creativity. Keep up the excellent work!"
	case score >= 60:
		return "📈 Good work! You're making progress. With some practice, you'll improve even more."
	case score >= 50:
		return "💪 Nice effort! Keep practicing and focusing on the areas for improvement."
	default:
		return "📚 Good start! This is a learning journey. Review the feedback and try again!"
	}
}
