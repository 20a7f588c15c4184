package postgres

import (
	"context"

	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TranscriptRepo interface {
	Insert(ctx context.Context, rec *models.TranscriptRecord) error
	SetFeedback(ctx context.Context, entryID string, feedback datatypes.JSON) error
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepo {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) Insert(ctx context.Context, rec *models.TranscriptRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *transcriptRepo) SetFeedback(ctx context.Context, entryID string, feedback datatypes.JSON) error {
	res := r.db.WithContext(ctx).
		Model(&models.TranscriptRecord{}).
		Where("id = ? AND feedback IS NULL", entryID).
		Update("feedback", feedback)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *transcriptRepo) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []models.TranscriptRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
