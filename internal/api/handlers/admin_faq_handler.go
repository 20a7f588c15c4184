package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/services"
	"github.com/yoockh/faqchat/internal/utils"
)

type AdminFAQHandler struct {
	svc services.FAQAdminService
}

func NewAdminFAQHandler(svc services.FAQAdminService) *AdminFAQHandler {
	return &AdminFAQHandler{svc: svc}
}

type FAQRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func (r FAQRequest) entry() models.FAQEntry {
	return models.FAQEntry{Question: r.Question, Answer: r.Answer, Category: r.Category}
}

func faqID(c *gin.Context, op string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid faq id", err))
		return 0, false
	}
	return id, true
}

func (h *AdminFAQHandler) List(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	out, err := h.svc.List(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": out})
}

func (h *AdminFAQHandler) Get(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	n, ok := faqID(c, "AdminFAQHandler.Get")
	if !ok {
		return
	}
	out, err := h.svc.Get(c.Request.Context(), id, n)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminFAQHandler) Create(c *gin.Context) {
	const op = "AdminFAQHandler.Create"

	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	out, err := h.svc.Create(c.Request.Context(), id, req.entry())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *AdminFAQHandler) Update(c *gin.Context) {
	const op = "AdminFAQHandler.Update"

	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	n, ok := faqID(c, op)
	if !ok {
		return
	}
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	out, err := h.svc.Update(c.Request.Context(), id, n, req.entry())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminFAQHandler) Delete(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}
	n, ok := faqID(c, "AdminFAQHandler.Delete")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, n); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
