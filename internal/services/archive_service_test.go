package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/utils"
	"gorm.io/datatypes"
)

type memTranscriptRepo struct {
	rows []*models.TranscriptRecord
}

func (r *memTranscriptRepo) Insert(_ context.Context, rec *models.TranscriptRecord) error {
	r.rows = append(r.rows, rec)
	return nil
}

func (r *memTranscriptRepo) SetFeedback(_ context.Context, entryID string, fb datatypes.JSON) error {
	for _, row := range r.rows {
		if row.ID == entryID && row.Feedback == nil {
			row.Feedback = fb
			return nil
		}
	}
	return utils.ErrNotFound
}

func (r *memTranscriptRepo) ListBySession(_ context.Context, userID, sessionID string, _ int) ([]models.TranscriptRecord, error) {
	var out []models.TranscriptRecord
	for _, row := range r.rows {
		if row.UserID == userID && row.SessionID == sessionID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func TestArchiveRecord(t *testing.T) {
	repo := &memTranscriptRepo{}
	svc := NewArchiveService(repo)
	ctx := context.Background()

	e := models.TranscriptEntry{
		ID:         "e-1",
		Author:     models.AuthorBot,
		Text:       NoticeResults,
		CreatedAt:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		FAQResults: []models.FAQEntry{faq(3, "Refunds", "Billing"), faq(5, "Invoices", "Billing")},
	}
	require.NoError(t, svc.Record(ctx, "s-1", "u-1", 1, e))

	rows, err := svc.ListBySession(ctx, "u-1", "s-1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Seq)
	assert.Equal(t, []int64{3, 5}, []int64(rows[0].FAQIDs))

	var results []models.FAQEntry
	require.NoError(t, json.Unmarshal(rows[0].FAQResults, &results))
	assert.Equal(t, e.FAQResults, results)

	require.NoError(t, svc.RecordFeedback(ctx, "e-1", models.Feedback{Helpful: true}))
	err = svc.RecordFeedback(ctx, "e-1", models.Feedback{Helpful: false})
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	other, err := svc.ListBySession(ctx, "u-2", "s-1", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestArchiveRecordValidation(t *testing.T) {
	svc := NewArchiveService(&memTranscriptRepo{})
	err := svc.Record(context.Background(), "", "u-1", 0, models.TranscriptEntry{ID: "e"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.ListBySession(context.Background(), "", "s-1", 0)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
