package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/api/handlers"
	"github.com/yoockh/faqchat/internal/api/middleware"
)

type Deps struct {
	Auth middleware.JWTConfig

	Session      *handlers.SessionHandler
	Conversation *handlers.ConversationHandler
	Analytics    *handlers.AnalyticsHandler
	AdminFAQ     *handlers.AdminFAQHandler
	WS           *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth))

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/sessions/recent", d.Session.Recent)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/end", d.Session.End)
	auth.GET("/session/:session_id/archive", d.Session.Archive)
	auth.POST("/session/:session_id/export", d.Session.Export)

	auth.POST("/session/:session_id/questions", d.Conversation.Ask)
	auth.GET("/session/:session_id/quick-replies", d.Conversation.QuickReplies)
	auth.POST("/session/:session_id/quick-replies", d.Conversation.InvokeQuickReply)
	auth.POST("/session/:session_id/quick-replies/refresh", d.Conversation.RefreshQuickReplies)
	auth.POST("/session/:session_id/entries/:entry_id/feedback", d.Conversation.Feedback)
	auth.GET("/session/:session_id/transcript", d.Conversation.Transcript)

	auth.GET("/analytics/popular-questions", d.Analytics.PopularQuestions)
	auth.GET("/analytics/category-distribution", d.Analytics.CategoryDistribution)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/faqs", d.AdminFAQ.List)
	admin.POST("/faqs", d.AdminFAQ.Create)
	admin.GET("/faqs/:id", d.AdminFAQ.Get)
	admin.PUT("/faqs/:id", d.AdminFAQ.Update)
	admin.DELETE("/faqs/:id", d.AdminFAQ.Delete)

	auth.GET("/ws/session/:session_id", d.WS.SessionWS)
}
