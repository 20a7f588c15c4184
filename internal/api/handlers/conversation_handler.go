package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/services"
	"github.com/yoockh/faqchat/internal/utils"
)

type ConversationHandler struct {
	sessions services.SessionService
}

func NewConversationHandler(sessions services.SessionService) *ConversationHandler {
	return &ConversationHandler{sessions: sessions}
}

type QuestionRequest struct {
	Text string `json:"text"`
}

type QuickReplyRequest struct {
	Category string `json:"category" binding:"required"`
}

type FeedbackRequest struct {
	Helpful *bool  `json:"helpful" binding:"required"`
	Comment string `json:"comment"`
}

type EntryResponse struct {
	SessionID string                 `json:"session_id"`
	Busy      bool                   `json:"busy"`
	Entry     models.TranscriptEntry `json:"entry"`
}

func (h *ConversationHandler) session(c *gin.Context) (*services.Orchestrator, bool) {
	id, ok := requireIdentity(c)
	if !ok {
		return nil, false
	}
	orch, err := h.sessions.Get(c.Request.Context(), id, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return orch, true
}

func (h *ConversationHandler) respondEntry(c *gin.Context, orch *services.Orchestrator, entryID string) {
	e, err := orch.Entry(entryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EntryResponse{SessionID: orch.SessionID(), Busy: orch.IsBusy(), Entry: e})
}

func (h *ConversationHandler) Ask(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Ask", "invalid request body", err))
		return
	}

	sessionID := c.Param("session_id")
	entryID, err := h.sessions.SubmitQuestion(c.Request.Context(), id, sessionID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	orch, err := h.sessions.Get(c.Request.Context(), id, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, orch, entryID)
}

func (h *ConversationHandler) QuickReplies(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"quick_replies": orch.QuickReplies()})
}

func (h *ConversationHandler) InvokeQuickReply(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var req QuickReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.InvokeQuickReply", "invalid request body", err))
		return
	}

	entryID, err := orch.InvokeQuickReply(c.Request.Context(), req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, orch, entryID)
}

func (h *ConversationHandler) RefreshQuickReplies(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	cats, err := h.sessions.RefreshQuickReplies(c.Request.Context(), id, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quick_replies": cats})
}

func (h *ConversationHandler) Feedback(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Feedback", "helpful is required", err))
		return
	}

	entryID := c.Param("entry_id")
	if err := orch.SubmitFeedback(c.Request.Context(), entryID, *req.Helpful, req.Comment); err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, orch, entryID)
}

func (h *ConversationHandler) Transcript(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": orch.SessionID(),
		"busy":       orch.IsBusy(),
		"transcript": orch.Entries(),
	})
}
