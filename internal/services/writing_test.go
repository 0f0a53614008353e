package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
	"github.com/funwriting/ai-agents/internal/safety"
	"github.com/funwriting/ai-agents/internal/scoring"
	"github.com/funwriting/ai-agents/internal/types"
)

type fakeTextSafety struct {
	verdict safety.Verdict
	called  bool
}

func (f *fakeTextSafety) EvaluateText(ctx context.Context, content, ageGroup string) safety.Verdict {
	f.called = true
	return f.verdict
}

type fakeScorer struct {
	feedback scoring.Feedback
	err      error
	called   bool
}

func (f *fakeScorer) Evaluate(ctx context.Context, studentWriting, originalPrompt, ageGroup, submissionID string) (scoring.Feedback, error) {
	f.called = true
	return f.feedback, f.err
}

type fakeFeedbackRepo struct {
	created []*types.SubmissionFeedback
	err     error
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *types.SubmissionFeedback) (*types.SubmissionFeedback, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, feedback)
	return feedback, nil
}

func (f *fakeFeedbackRepo) GetBySubmissionID(ctx context.Context, tx *gorm.DB, submissionID string) ([]*types.SubmissionFeedback, error) {
	return f.created, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func safeVerdict() safety.Verdict {
	return safety.Verdict{
		IsSafe:         true,
		RiskLevel:      safety.RiskNone,
		Issues:         []safety.Issue{},
		Recommendation: safety.RecommendApprove,
		Reasoning:      "Content appears safe",
		Timestamp:      time.Now().UTC(),
	}
}

func blockedVerdict() safety.Verdict {
	alert := "⚠️ This content has been flagged for review."
	return safety.Verdict{
		IsSafe:         false,
		RiskLevel:      safety.RiskHigh,
		Issues:         []safety.Issue{{Category: "violence", Severity: safety.SeverityHigh, Description: "graphic"}},
		Recommendation: safety.RecommendBlock,
		Reasoning:      "Contains graphic violence.",
		AlertMessage:   &alert,
		Timestamp:      time.Now().UTC(),
	}
}

func sampleFeedback() scoring.Feedback {
	return scoring.Feedback{
		TotalScore: 79,
		Breakdown:  scoring.Breakdown{Grammar: 20, Spelling: 22, Relevance: 18, Creativity: 19},
	}
}

func TestAnalyzeSafeWriting(t *testing.T) {
	textSafety := &fakeTextSafety{verdict: safeVerdict()}
	scorer := &fakeScorer{feedback: sampleFeedback()}
	repo := &fakeFeedbackRepo{}
	svc := NewWritingAnalysisService(testLogger(t), textSafety, scorer, repo)

	res, err := svc.Analyze(context.Background(), AnalyzeWritingRequest{
		StudentWriting: "my story",
		OriginalPrompt: "Write about a dragon",
		AgeGroup:       "7-8",
		SubmissionID:   "sub-1",
		UserID:         "user-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Success || res.Blocked {
		t.Errorf("success=%v blocked=%v, want success", res.Success, res.Blocked)
	}
	if res.Score != 79 {
		t.Errorf("score = %d, want 79", res.Score)
	}
	if res.Feedback == nil {
		t.Fatal("feedback missing")
	}
	if len(repo.created) != 1 {
		t.Fatalf("persisted %d records, want 1", len(repo.created))
	}
	if repo.created[0].Score != 79 || repo.created[0].SubmissionID != "sub-1" {
		t.Errorf("persisted record = %+v", repo.created[0])
	}
}

func TestAnalyzeBlockedWritingShortCircuits(t *testing.T) {
	textSafety := &fakeTextSafety{verdict: blockedVerdict()}
	scorer := &fakeScorer{feedback: sampleFeedback()}
	repo := &fakeFeedbackRepo{}
	svc := NewWritingAnalysisService(testLogger(t), textSafety, scorer, repo)

	res, err := svc.Analyze(context.Background(), AnalyzeWritingRequest{
		StudentWriting: "bad story",
		AgeGroup:       "7-8",
		SubmissionID:   "sub-2",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Success {
		t.Error("blocked content must not be a success")
	}
	if !res.Blocked {
		t.Error("blocked flag not set")
	}
	if res.AlertMessage == nil {
		t.Error("blocked result must carry the alert message")
	}
	if res.Recommendation != safety.RecommendBlock {
		t.Errorf("recommendation = %q", res.Recommendation)
	}
	if scorer.called {
		t.Error("scorer must not run on blocked content")
	}
	if len(repo.created) != 0 {
		t.Error("blocked content must not be persisted")
	}
}

func TestAnalyzePropagatesEvaluationFailure(t *testing.T) {
	textSafety := &fakeTextSafety{verdict: safeVerdict()}
	scorer := &fakeScorer{err: apperrors.ErrEvaluationFailed}
	svc := NewWritingAnalysisService(testLogger(t), textSafety, scorer, nil)

	_, err := svc.Analyze(context.Background(), AnalyzeWritingRequest{StudentWriting: "w", AgeGroup: "7-8"})
	if !errors.Is(err, apperrors.ErrEvaluationFailed) {
		t.Errorf("err = %v, want ErrEvaluationFailed", err)
	}
}

func TestAnalyzeToleratesNilRepo(t *testing.T) {
	textSafety := &fakeTextSafety{verdict: safeVerdict()}
	scorer := &fakeScorer{feedback: sampleFeedback()}
	svc := NewWritingAnalysisService(testLogger(t), textSafety, scorer, nil)

	res, err := svc.Analyze(context.Background(), AnalyzeWritingRequest{StudentWriting: "w", AgeGroup: "7-8", SubmissionID: "sub-3"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Success {
		t.Error("analysis should succeed without a database")
	}
}

func TestAnalyzeToleratesRepoFailure(t *testing.T) {
	textSafety := &fakeTextSafety{verdict: safeVerdict()}
	scorer := &fakeScorer{feedback: sampleFeedback()}
	repo := &fakeFeedbackRepo{err: errors.New("db down")}
	svc := NewWritingAnalysisService(testLogger(t), textSafety, scorer, repo)

	res, err := svc.Analyze(context.Background(), AnalyzeWritingRequest{StudentWriting: "w", AgeGroup: "7-8", SubmissionID: "sub-4"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Success {
		t.Error("a persistence failure must not fail the analysis")
	}
}
