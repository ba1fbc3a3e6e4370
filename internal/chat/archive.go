package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ArchivedExchange is one completed question/answer pair, persisted for
// analytics. The live Session stays purely in memory; this table is an
// append-only log written by the archive worker, never read back into a
// session.
type ArchivedExchange struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID       string    `gorm:"type:varchar(26);index;not null"`
	KnowledgeBaseID string    `gorm:"type:varchar(64);index;not null"`
	Query           string    `gorm:"type:text;not null"`
	Response        string    `gorm:"type:text;not null"`
	VideoPath       string    `gorm:"type:varchar(512)"`
	StartTime       float64   `gorm:"not null"`
	AnsweredAt      time.Time `gorm:"index"`
	CreatedAt       time.Time
}

func (ArchivedExchange) TableName() string { return "chat_exchanges" }

type ArchiveRepo struct {
	db *gorm.DB
}

func NewArchiveRepo(db *gorm.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

func (r *ArchiveRepo) Insert(ctx context.Context, ex *ArchivedExchange) error {
	return r.db.WithContext(ctx).Create(ex).Error
}

// ListBySession returns a session's archived exchanges, oldest first.
func (r *ArchiveRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]ArchivedExchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []ArchivedExchange
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecent returns the newest exchanges across all sessions.
func (r *ArchiveRepo) ListRecent(ctx context.Context, limit int) ([]ArchivedExchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []ArchivedExchange
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
