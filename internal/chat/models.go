package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Vote string

const (
	VotePositive Vote = "positive"
	VoteNegative Vote = "negative"
)

// Message is one turn in a conversation. Assistant messages start out as
// placeholders (Pending=true, empty content) and are finalized in place; the
// ID never changes across that transition.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Pending   bool      `json:"pending,omitempty"`

	// Set on finalized assistant messages when the answer points at a moment
	// in a video.
	VideoTimestamp *float64 `json:"video_timestamp,omitempty"`
	VideoPath      string   `json:"video_path,omitempty"`

	// Feedback state, set at most once unless resubmitted.
	Feedback        Vote   `json:"feedback,omitempty"`
	FeedbackComment string `json:"feedback_comment,omitempty"`

	// Back-references required to submit feedback later without re-deriving
	// them from history.
	OriginalQuery   string `json:"original_query,omitempty"`
	KnowledgeBaseID string `json:"knowledge_base_id,omitempty"`
}
