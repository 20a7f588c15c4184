package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/yoockh/faqchat/internal/models"
	pgrepo "github.com/yoockh/faqchat/internal/repositories/postgres"
	"github.com/yoockh/faqchat/internal/utils"
	"gorm.io/datatypes"
)

type ArchiveService interface {
	TranscriptArchive
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error)
}

type archiveService struct {
	records pgrepo.TranscriptRepo
}

func NewArchiveService(records pgrepo.TranscriptRepo) ArchiveService {
	return &archiveService{records: records}
}

func (s *archiveService) Record(ctx context.Context, sessionID, userID string, seq int64, e models.TranscriptEntry) error {
	const op = "ArchiveService.Record"

	if sessionID == "" || e.ID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and entry id are required", nil)
	}

	results, err := json.Marshal(e.FAQResults)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode faq results", err)
	}
	ids := make(pq.Int64Array, 0, len(e.FAQResults))
	for _, f := range e.FAQResults {
		ids = append(ids, f.ID)
	}

	row := &models.TranscriptRecord{
		ID:         e.ID,
		SessionID:  sessionID,
		UserID:     userID,
		Seq:        seq,
		Author:     string(e.Author),
		Text:       e.Text,
		FAQIDs:     ids,
		FAQResults: datatypes.JSON(results),
		CreatedAt:  e.CreatedAt.UTC(),
	}
	if err := s.records.Insert(ctx, row); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert transcript entry", err)
	}
	return nil
}

func (s *archiveService) RecordFeedback(ctx context.Context, entryID string, fb models.Feedback) error {
	const op = "ArchiveService.RecordFeedback"

	if entryID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "entry id is required", nil)
	}
	b, err := json.Marshal(fb)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode feedback", err)
	}
	if err := s.records.SetFeedback(ctx, entryID, datatypes.JSON(b)); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "archived entry not found or feedback already set", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update feedback", err)
	}
	return nil
}

func (s *archiveService) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error) {
	const op = "ArchiveService.ListBySession"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}

	rows, err := s.records.ListBySession(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcript entries", err)
	}
	return rows, nil
}
