package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/types"
)

type MediaRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.MediaRecord) (*types.MediaRecord, error)
	GetBySubmissionID(ctx context.Context, tx *gorm.DB, submissionID string) ([]*types.MediaRecord, error)
}

type mediaRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRecordRepo(db *gorm.DB, baseLog *logger.Logger) MediaRecordRepo {
	repoLog := baseLog.With("repo", "MediaRecordRepo")
	return &mediaRecordRepo{db: db, log: repoLog}
}

func (r *mediaRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.MediaRecord) (*types.MediaRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *mediaRecordRepo) GetBySubmissionID(ctx context.Context, tx *gorm.DB, submissionID string) ([]*types.MediaRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.MediaRecord
	if err := transaction.WithContext(ctx).Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
