package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/common"
	"github.com/recallhq/videoindex/internal/httpapi/handlers"
	"github.com/recallhq/videoindex/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)

	// knowledge bases
	r.GET("/knowledge-bases", h.ListKnowledgeBases)
	r.GET("/knowledge-bases/:kb_id", h.GetKnowledgeBase)

	// conversational sessions
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions/:session_id/messages", h.ListMessages)
	r.POST("/sessions/:session_id/query", h.SubmitQuery)
	r.POST("/sessions/:session_id/clear", h.ClearSession)
	r.DELETE("/sessions/:session_id", h.RemoveSession)
	r.POST("/sessions/:session_id/messages/:message_id/feedback", h.SubmitMessageFeedback)
	r.GET("/sessions/:session_id/exchanges", h.ListArchivedExchanges)
	r.GET("/exchanges/recent", h.ListRecentExchanges)

	// speech
	r.POST("/speech/transcriptions", h.Transcribe)
	r.POST("/speech/speak", h.Speak)

	// product feedback
	r.POST("/feedback", h.SendFeedback)

	return r
}
