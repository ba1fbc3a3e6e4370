package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/common"
	"github.com/recallhq/videoindex/internal/events"
	"github.com/recallhq/videoindex/internal/kb"
	"github.com/recallhq/videoindex/internal/mediaurl"
)

type createSessionReq struct {
	KnowledgeBaseID string `json:"knowledge_base_id" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, err := h.Sessions.Create(req.KnowledgeBaseID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}
	common.OK(c, gin.H{"session_id": sess.ID(), "knowledge_base_id": sess.KnowledgeBaseID()})
}

type submitQueryReq struct {
	Query string `json:"query" binding:"required"`
	// Voice marks a query that originated from transcribed speech.
	Voice bool `json:"voice"`
}

// SubmitQuery asks one question in a session. The call blocks until the
// answer (or the failure notice) is finalized; while it is pending a second
// submit on the same session is rejected with 409.
func (h *Handler) SubmitQuery(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req submitQueryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	msg, err := sess.Submit(c.Request.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyQuery):
			common.Fail(c, http.StatusBadRequest, 10002, "query required")
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40901, "a query is already pending")
		case errors.Is(err, chat.ErrQueryFailed):
			common.Fail(c, http.StatusBadGateway, 50203, "query failed")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}

	h.archiveExchange(c, sess, req.Query, msg)

	resp := gin.H{"message": msg}
	if msg.VideoPath != "" {
		resp["video_url"] = mediaurl.PublicVideoURL(h.Cfg.PublicMediaURL, msg.VideoPath)
		if msg.VideoTimestamp != nil {
			resp["start_time"] = *msg.VideoTimestamp
		}
	}
	common.OK(c, resp)
}

// archiveExchange is fire-and-forget; a broker outage never fails the query.
func (h *Handler) archiveExchange(c *gin.Context, sess *chat.Session, query string, msg chat.Message) {
	if h.Events == nil {
		return
	}
	ev := events.ExchangeEvent{
		SessionID:       sess.ID(),
		KnowledgeBaseID: sess.KnowledgeBaseID(),
		Query:           query,
		Response:        msg.Content,
		VideoPath:       msg.VideoPath,
		AnsweredAt:      time.Now(),
	}
	if msg.VideoTimestamp != nil {
		ev.StartTime = *msg.VideoTimestamp
	}
	if err := h.Events.PublishExchange(c.Request.Context(), ev); err != nil {
		log.Printf("publish exchange failed session=%s err=%v", sess.ID(), err)
	}
}

func (h *Handler) ListMessages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{
		"messages": sess.Messages(),
		"awaiting": sess.Awaiting(),
		"status":   sess.Status(),
	})
}

type messageFeedbackReq struct {
	Vote    string `json:"vote" binding:"required"`
	Comment string `json:"comment"`
}

func (h *Handler) SubmitMessageFeedback(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req messageFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	var vote chat.Vote
	switch req.Vote {
	case "positive":
		vote = chat.VotePositive
	case "negative":
		vote = chat.VoteNegative
	default:
		common.Fail(c, http.StatusBadRequest, 10003, "vote must be positive or negative")
		return
	}

	err := sess.SubmitFeedback(c.Request.Context(), c.Param("message_id"), vote, req.Comment)
	switch {
	case err == nil:
		common.OK(c, gin.H{"message_id": c.Param("message_id"), "vote": vote})
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40403, "message not found")
	case errors.Is(err, chat.ErrIncompleteMessage):
		common.Fail(c, http.StatusUnprocessableEntity, 42201, "message cannot take feedback")
	case errors.Is(err, kb.ErrTimeout):
		common.Fail(c, http.StatusGatewayTimeout, 50401, "feedback timed out")
	default:
		common.Fail(c, http.StatusBadGateway, 50202, "feedback failed")
	}
}

// ClearSession wipes history but keeps the session alive.
func (h *Handler) ClearSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Clear()
	common.OK(c, gin.H{"session_id": sess.ID()})
}

// RemoveSession discards the session entirely.
func (h *Handler) RemoveSession(c *gin.Context) {
	id := c.Param("session_id")
	if !h.Sessions.Remove(id) {
		common.Fail(c, http.StatusNotFound, 40402, "session not found")
		return
	}
	common.OK(c, gin.H{"session_id": id})
}

// ListArchivedExchanges reads the analytics log for one session.
func (h *Handler) ListArchivedExchanges(c *gin.Context) {
	if h.Archive == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "archive not configured")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Archive.ListBySession(c.Request.Context(), c.Param("session_id"), limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list exchanges")
		return
	}
	common.OK(c, gin.H{"exchanges": out})
}

func (h *Handler) ListRecentExchanges(c *gin.Context) {
	if h.Archive == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "archive not configured")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Archive.ListRecent(c.Request.Context(), limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list exchanges")
		return
	}
	common.OK(c, gin.H{"exchanges": out})
}

func (h *Handler) session(c *gin.Context) (*chat.Session, bool) {
	sess, ok := h.Sessions.Get(c.Param("session_id"))
	if !ok {
		common.Fail(c, http.StatusNotFound, 40402, "session not found")
		return nil, false
	}
	return sess, true
}
