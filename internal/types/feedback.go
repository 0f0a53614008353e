package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmissionFeedback stores one writing evaluation per submission. Feedback
// holds the full scoring payload as returned to the client.
type SubmissionFeedback struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubmissionID string         `gorm:"column:submission_id;not null;index" json:"submission_id"`
	UserID       string         `gorm:"column:user_id;not null;index" json:"user_id"`
	Score        int            `gorm:"column:score;not null" json:"score"`
	Feedback     datatypes.JSON `gorm:"type:jsonb;column:feedback" json:"feedback"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SubmissionFeedback) TableName() string {
	return "submission_feedback"
}
