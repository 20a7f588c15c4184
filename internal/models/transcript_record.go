package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// TranscriptRecord is the archived copy of a TranscriptEntry.
type TranscriptRecord struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;index:idx_transcript_session_seq,priority:1" json:"session_id"`
	UserID    string `gorm:"column:user_id;type:text;index" json:"user_id"`
	Seq       int64  `gorm:"column:seq;type:bigint;index:idx_transcript_session_seq,priority:2" json:"seq"`
	Author    string `gorm:"column:author;type:text" json:"author"` // "user" | "bot"
	Text      string `gorm:"column:text;type:text" json:"text"`

	FAQIDs     pq.Int64Array  `gorm:"column:faq_ids;type:bigint[]" json:"faq_ids"`
	FAQResults datatypes.JSON `gorm:"column:faq_results;type:jsonb" json:"faq_results"`
	Feedback   datatypes.JSON `gorm:"column:feedback;type:jsonb" json:"feedback,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (TranscriptRecord) TableName() string { return "transcript_entries" }
