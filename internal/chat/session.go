package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/videoindex/internal/common"
	"github.com/recallhq/videoindex/internal/kb"
)

var (
	ErrEmptyQuery = errors.New("chat: empty query")
	// ErrBusy is returned when Submit is called while a request is pending.
	// Submissions are serialized; the second caller is rejected, not queued.
	ErrBusy        = errors.New("chat: a request is already pending")
	ErrQueryFailed = errors.New("chat: query failed")
	ErrNotFound    = errors.New("chat: message not found")
	// ErrIncompleteMessage marks feedback on a message that lacks the
	// original query or knowledge-base reference; no network call is made.
	ErrIncompleteMessage = errors.New("chat: message missing feedback metadata")
)

const failureNotice = "Sorry, I ran into a problem answering that. Please try again."

// Cosmetic interim status, cycled on a fixed interval while a query is
// in flight. The external API does not stream; this is perceived-latency UI
// only and stops the moment the real response or an error arrives.
var pendingStatuses = []string{
	"Analyzing your question…",
	"Searching the video…",
	"Finding relevant moments…",
	"Preparing your answer…",
}

const defaultStatusInterval = 1500 * time.Millisecond

// Querier answers natural-language questions. Implemented by kb.Client.
type Querier interface {
	Query(ctx context.Context, knowledgeBaseID, query string, maxResults int) (kb.QueryResult, error)
}

// FeedbackSender submits per-answer votes. Implemented by kb.Client.
type FeedbackSender interface {
	SendQueryFeedback(ctx context.Context, fb kb.QueryFeedback) error
}

// AnswerFunc is the proactive-playback hook: it receives the target video
// path and start time as soon as an answer arrives, before history settles,
// so the player can begin loading without waiting for a render pass.
type AnswerFunc func(videoPath string, startTime float64)

// Session is the conversational state machine for one knowledge base: it
// holds ordered message history, serializes query submissions, and drives the
// placeholder → finalized answer transition.
type Session struct {
	id              string
	knowledgeBaseID string
	querier         Querier
	feedback        FeedbackSender
	maxResults      int
	statusInterval  time.Duration

	mu       sync.Mutex
	messages []Message
	awaiting bool
	status   string
	onAnswer AnswerFunc
	cancel   context.CancelFunc
}

func NewSession(knowledgeBaseID string, querier Querier, feedback FeedbackSender, maxResults int) (*Session, error) {
	if querier == nil {
		return nil, errors.New("chat: querier is required")
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	return &Session{
		id:              id,
		knowledgeBaseID: knowledgeBaseID,
		querier:         querier,
		feedback:        feedback,
		maxResults:      maxResults,
		statusInterval:  defaultStatusInterval,
	}, nil
}

func (s *Session) ID() string              { return s.id }
func (s *Session) KnowledgeBaseID() string { return s.knowledgeBaseID }

// OnAnswer registers the proactive-playback callback.
func (s *Session) OnAnswer(fn AnswerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAnswer = fn
}

// WithStatusInterval overrides the interim-status cycle interval (for testing).
func (s *Session) WithStatusInterval(d time.Duration) {
	if d > 0 {
		s.statusInterval = d
	}
}

// Messages returns a snapshot of the history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Awaiting reports whether a query is in flight.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Status returns the current interim status line, empty when idle.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Submit asks one question. The user message and a pending assistant
// placeholder are appended synchronously; the placeholder is finalized in
// place (same ID) once the answer or an error arrives. Returns the finalized
// assistant message. While a request is pending further submissions are
// rejected with ErrBusy.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyQuery
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	userID, err := common.NewULID()
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}
	placeholderID, err := common.NewULID()
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}

	now := time.Now()
	s.messages = append(s.messages,
		Message{ID: userID, Role: RoleUser, Content: text, CreatedAt: now},
		Message{ID: placeholderID, Role: RoleAssistant, CreatedAt: now, Pending: true},
	)
	s.awaiting = true
	s.status = pendingStatuses[0]
	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	onAnswer := s.onAnswer
	s.mu.Unlock()

	stop := make(chan struct{})
	go s.cycleStatus(stop)

	// Unconditional reset: awaiting and status must clear on every exit path.
	defer func() {
		s.mu.Lock()
		s.awaiting = false
		s.status = ""
		s.cancel = nil
		s.mu.Unlock()
		close(stop)
		cancel()
	}()

	res, err := s.querier.Query(qctx, s.knowledgeBaseID, text, s.maxResults)
	if err != nil {
		final := s.finalize(placeholderID, func(m *Message) {
			m.Content = failureNotice
		})
		return final, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	if onAnswer != nil && res.VideoPath != "" {
		onAnswer(res.VideoPath, res.StartTime)
	}

	final := s.finalize(placeholderID, func(m *Message) {
		m.Content = res.Response
		ts := res.StartTime
		m.VideoTimestamp = &ts
		m.VideoPath = res.VideoPath
		m.OriginalQuery = text
		m.KnowledgeBaseID = s.knowledgeBaseID
	})
	return final, nil
}

// finalize replaces the placeholder by identity. If history was cleared while
// the request was in flight the message is not resurrected; the finalized
// form is still returned to the caller.
func (s *Session) finalize(id string, mutate func(*Message)) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			m := &s.messages[i]
			m.Pending = false
			mutate(m)
			return *m
		}
	}
	m := Message{ID: id, Role: RoleAssistant, CreatedAt: time.Now()}
	mutate(&m)
	return m
}

func (s *Session) cycleStatus(stop <-chan struct{}) {
	t := time.NewTicker(s.statusInterval)
	defer t.Stop()
	i := 0
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			i++
			s.mu.Lock()
			if s.awaiting {
				s.status = pendingStatuses[i%len(pendingStatuses)]
			}
			s.mu.Unlock()
		}
	}
}

// SubmitFeedback votes on a finalized assistant message. The vote is applied
// optimistically and reverted if the remote call fails.
func (s *Session) SubmitFeedback(ctx context.Context, messageID string, vote Vote, comment string) error {
	if s.feedback == nil {
		return errors.New("chat: no feedback sender configured")
	}

	s.mu.Lock()
	idx := -1
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	m := &s.messages[idx]
	if m.Role != RoleAssistant || m.Pending || m.OriginalQuery == "" || m.KnowledgeBaseID == "" {
		s.mu.Unlock()
		return ErrIncompleteMessage
	}

	prevVote, prevComment := m.Feedback, m.FeedbackComment
	m.Feedback = vote
	m.FeedbackComment = comment
	payload := kb.QueryFeedback{
		KnowledgeBaseID: m.KnowledgeBaseID,
		Query:           m.OriginalQuery,
		Response:        m.Content,
		ThumbsUp:        vote == VotePositive,
		Comments:        comment,
	}
	s.mu.Unlock()

	if err := s.feedback.SendQueryFeedback(ctx, payload); err != nil {
		s.mu.Lock()
		for i := range s.messages {
			if s.messages[i].ID == messageID {
				s.messages[i].Feedback = prevVote
				s.messages[i].FeedbackComment = prevComment
				break
			}
		}
		s.mu.Unlock()
		return fmt.Errorf("submit feedback: %w", err)
	}
	return nil
}

// Clear resets history and interim status and cancels any in-flight query.
// No network call is made.
func (s *Session) Clear() {
	s.mu.Lock()
	cancel := s.cancel
	s.messages = nil
	s.status = ""
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
