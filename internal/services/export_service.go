package services

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/storage"
	"github.com/yoockh/faqchat/internal/utils"
)

type ExportService interface {
	Export(ctx context.Context, orch *Orchestrator) (string, error)
}

type exportService struct {
	uploader storage.Uploader // optional
	now      func() time.Time
}

func NewExportService(uploader storage.Uploader) ExportService {
	return &exportService{uploader: uploader, now: time.Now}
}

type transcriptExport struct {
	SessionID  string                   `json:"session_id"`
	UserID     string                   `json:"user_id"`
	ExportedAt time.Time                `json:"exported_at"`
	Entries    []models.TranscriptEntry `json:"entries"`
}

func (s *exportService) Export(ctx context.Context, orch *Orchestrator) (string, error) {
	const op = "ExportService.Export"

	if s.uploader == nil {
		return "", utils.E(utils.CodeUnavailable, op, "transcript export is not configured", utils.ErrServiceUnavailable)
	}
	if orch == nil {
		return "", utils.E(utils.CodeInvalidArgument, op, "session is required", nil)
	}

	doc := transcriptExport{
		SessionID:  orch.SessionID(),
		UserID:     orch.Identity().UserID,
		ExportedAt: s.now().UTC(),
		Entries:    orch.Entries(),
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to encode transcript", err)
	}

	objectName := "transcripts/" + doc.UserID + "/" + doc.SessionID + ".json"
	path, err := s.uploader.Upload(ctx, objectName, "application/json", bytes.NewReader(b))
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload transcript", err)
	}
	return path, nil
}
