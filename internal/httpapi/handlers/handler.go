package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/common"
	"github.com/recallhq/videoindex/internal/config"
	"github.com/recallhq/videoindex/internal/events"
	"github.com/recallhq/videoindex/internal/kb"
	"github.com/recallhq/videoindex/internal/speech"
)

// Catalog serves knowledge-base listing and detail reads. Satisfied by
// kb.Client directly and by kb.Cache when Redis is configured.
type Catalog interface {
	List(ctx context.Context, filters kb.ListFilters) ([]kb.KnowledgeBase, error)
	Get(ctx context.Context, id string) (*kb.Detail, error)
}

type Handler struct {
	Cfg      config.Config
	Catalog  Catalog
	KB       *kb.Client
	Sessions *chat.Manager
	Speech   speech.Provider
	Events   *events.Publisher // optional; nil disables archiving
	Archive  *chat.ArchiveRepo // optional; nil disables archive reads
}

func NewHandler(cfg config.Config, catalog Catalog, kbc *kb.Client, sessions *chat.Manager, provider speech.Provider, pub *events.Publisher, archive *chat.ArchiveRepo) *Handler {
	return &Handler{
		Cfg:      cfg,
		Catalog:  catalog,
		KB:       kbc,
		Sessions: sessions,
		Speech:   provider,
		Events:   pub,
		Archive:  archive,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}
