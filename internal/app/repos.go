package app

import (
	"gorm.io/gorm"

	"github.com/funwriting/ai-agents/internal/logger"
	"github.com/funwriting/ai-agents/internal/repos"
)

type Repos struct {
	SubmissionFeedback repos.SubmissionFeedbackRepo
	MediaRecord        repos.MediaRecordRepo
}

// wireRepos builds the repo set. A nil db leaves every repo nil, which the
// services treat as persistence disabled.
func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	if db == nil {
		return Repos{}
	}
	return Repos{
		SubmissionFeedback: repos.NewSubmissionFeedbackRepo(db, log),
		MediaRecord:        repos.NewMediaRecordRepo(db, log),
	}
}
