package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/common"
	"github.com/recallhq/videoindex/internal/kb"
	"github.com/recallhq/videoindex/internal/mediaurl"
)

// ListKnowledgeBases returns the dashboard listing. Image paths are rewritten
// to public URLs before they leave the gateway.
func (h *Handler) ListKnowledgeBases(c *gin.Context) {
	filters := kb.ListFilters{
		Query: strings.TrimSpace(c.Query("query")),
		Tags:  c.QueryArray("tags"),
	}

	kbs, err := h.Catalog.List(c.Request.Context(), filters)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 50201, "knowledge-base listing unavailable")
		return
	}
	for i := range kbs {
		if kbs[i].Image != "" {
			kbs[i].Image = mediaurl.PublicImageURL(h.Cfg.PublicMediaURL, kbs[i].Image)
		}
	}
	common.OK(c, gin.H{"knowledge_bases": kbs})
}

func (h *Handler) GetKnowledgeBase(c *gin.Context) {
	id := c.Param("kb_id")
	detail, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 50201, "knowledge base unavailable")
		return
	}
	if detail.Image != "" {
		detail.Image = mediaurl.PublicImageURL(h.Cfg.PublicMediaURL, detail.Image)
	}
	if detail.VideoPath != "" {
		detail.VideoPath = mediaurl.PublicVideoURL(h.Cfg.PublicMediaURL, detail.VideoPath)
	}
	common.OK(c, gin.H{"knowledge_base": detail})
}

type feedbackReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Rating   int    `json:"rating" binding:"required"`
	Category string `json:"category" binding:"required"`
	Comments string `json:"comments" binding:"required"`
}

// SendFeedback forwards the general product feedback form.
func (h *Handler) SendFeedback(c *gin.Context) {
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	out, err := h.KB.SendFeedback(c.Request.Context(), kb.Feedback{
		Name:     req.Name,
		Email:    req.Email,
		Rating:   req.Rating,
		Category: req.Category,
		Comments: req.Comments,
	})
	if err != nil {
		if errors.Is(err, kb.ErrTimeout) {
			common.Fail(c, http.StatusGatewayTimeout, 50401, "feedback timed out")
			return
		}
		common.Fail(c, http.StatusBadGateway, 50202, "feedback failed")
		return
	}
	common.OK(c, gin.H{"success": out.Success, "message": out.Message, "id": out.ID})
}
