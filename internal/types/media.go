package types

import (
	"time"

	"github.com/google/uuid"
)

// MediaRecord tracks each generated image or video and where it lives.
type MediaRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;not null;index" json:"submission_id"`
	UserID       string    `gorm:"column:user_id;not null;index" json:"user_id"`
	MediaType    string    `gorm:"column:media_type;not null" json:"media_type"`
	URL          string    `gorm:"column:url;not null" json:"url"`
	Prompt       string    `gorm:"column:prompt" json:"prompt"`
	Style        string    `gorm:"column:style" json:"style"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (MediaRecord) TableName() string {
	return "media_record"
}
