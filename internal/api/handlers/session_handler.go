package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/services"
	"github.com/yoockh/faqchat/internal/utils"
)

type SessionHandler struct {
	svc     services.SessionService
	archive services.ArchiveService // optional
	export  services.ExportService
}

func NewSessionHandler(svc services.SessionService, archive services.ArchiveService, export services.ExportService) *SessionHandler {
	return &SessionHandler{svc: svc, archive: archive, export: export}
}

type SessionStateResponse struct {
	SessionID    string                   `json:"session_id"`
	Busy         bool                     `json:"busy"`
	QuickReplies []string                 `json:"quick_replies"`
	Transcript   []models.TranscriptEntry `json:"transcript"`
}

func sessionState(o *services.Orchestrator) SessionStateResponse {
	return SessionStateResponse{
		SessionID:    o.SessionID(),
		Busy:         o.IsBusy(),
		QuickReplies: o.QuickReplies(),
		Transcript:   o.Entries(),
	}
}

func (h *SessionHandler) Start(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	orch, err := h.svc.Start(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionState(orch))
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	orch, err := h.svc.Get(c.Request.Context(), id, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionState(orch))
}

func (h *SessionHandler) End(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	ended, err := h.svc.End(c.Request.Context(), id, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ended)
}

func (h *SessionHandler) Recent(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	limit := int64(20)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 || n > 100 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Recent", "limit must be between 1 and 100", err))
			return
		}
		limit = n
	}

	sessions, err := h.svc.Recent(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Archive(c *gin.Context) {
	const op = "SessionHandler.Archive"

	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	if h.archive == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "transcript archive is not configured", utils.ErrServiceUnavailable))
		return
	}

	limit := 200
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "limit must be between 1 and 1000", err))
			return
		}
		limit = n
	}

	sessionID := c.Param("session_id")
	rows, err := h.archive.ListBySession(c.Request.Context(), id.UserID, sessionID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "entries": rows})
}

func (h *SessionHandler) Export(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	orch, err := h.svc.Get(c.Request.Context(), id, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	path, err := h.export.Export(c.Request.Context(), orch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": orch.SessionID(), "path": path})
}
