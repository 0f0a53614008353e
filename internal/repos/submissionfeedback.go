package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/types"
)

type SubmissionFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *types.SubmissionFeedback) (*types.SubmissionFeedback, error)
	GetBySubmissionID(ctx context.Context, tx *gorm.DB, submissionID string) ([]*types.SubmissionFeedback, error)
}

type submissionFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionFeedbackRepo {
	repoLog := baseLog.With("repo", "SubmissionFeedbackRepo")
	return &submissionFeedbackRepo{db: db, log: repoLog}
}

func (r *submissionFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *types.SubmissionFeedback) (*types.SubmissionFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *submissionFeedbackRepo) GetBySubmissionID(ctx context.Context, tx *gorm.DB, submissionID string) ([]*types.SubmissionFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SubmissionFeedback
	if err := transaction.WithContext(ctx).Where("submission_id = ?", submissionID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
