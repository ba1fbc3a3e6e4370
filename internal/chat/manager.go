package chat

import "sync"

// Manager is the registry of live sessions, keyed by session ID. Sessions are
// in-memory only; removing one discards its history.
type Manager struct {
	querier    Querier
	feedback   FeedbackSender
	maxResults int

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(querier Querier, feedback FeedbackSender, maxResults int) *Manager {
	return &Manager{
		querier:    querier,
		feedback:   feedback,
		maxResults: maxResults,
		sessions:   make(map[string]*Session),
	}
}

func (m *Manager) Create(knowledgeBaseID string) (*Session, error) {
	s, err := NewSession(knowledgeBaseID, m.querier, m.feedback, m.maxResults)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove clears the session's history and drops it from the registry.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Clear()
	}
	return ok
}
