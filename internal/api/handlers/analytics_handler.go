package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/services"
)

type AnalyticsHandler struct {
	svc services.AnalyticsService
}

func NewAnalyticsHandler(svc services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) PopularQuestions(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	out, err := h.svc.PopularQuestions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": out})
}

func (h *AnalyticsHandler) CategoryDistribution(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	out, err := h.svc.CategoryDistribution(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}
