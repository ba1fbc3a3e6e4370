package kb

// KnowledgeBase is one entry in the dashboard listing.
type KnowledgeBase struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Image string   `json:"image"`
}

// Detail is the full per-knowledge-base record.
type Detail struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Image        string   `json:"image"`
	VideoPath    string   `json:"video_path"`
	Introduction string   `json:"introduction"`
}

// QueryResult is the answer returned for one natural-language question.
// VideoPath and StartTime point at the moment the answer was drawn from.
type QueryResult struct {
	KnowledgeBase string   `json:"knowledge_base"`
	Query         string   `json:"query"`
	Response      string   `json:"response"`
	VideoPath     string   `json:"video_path"`
	ImagePaths    []string `json:"image_path"`
	StartTime     float64  `json:"start_time"`
	EndTime       float64  `json:"end_time"`
}

// QueryFeedback is a thumbs-up/down vote on a single answer.
type QueryFeedback struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Query           string `json:"query"`
	Response        string `json:"response"`
	ThumbsUp        bool   `json:"thumbs_up"`
	Comments        string `json:"comments,omitempty"`
}

// Feedback is the general product feedback form payload.
type Feedback struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Rating   int    `json:"rating"`
	Category string `json:"category"`
	Comments string `json:"comments"`
}

// FeedbackResponse is returned by both feedback endpoints.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ListFilters narrows the knowledge-base listing.
type ListFilters struct {
	Query string
	Tags  []string
}
