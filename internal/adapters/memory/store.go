// Package memory provides in-memory stores, the default for local runs
// and tests. Safe for concurrent use.
package memory

import (
	"context"
	"sync"

	"github.com/kneez/intake/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AssessmentSession
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.AssessmentSession)}
}

// Save stores a copy, so later caller mutations cannot leak in.
func (s *SessionStore) Save(ctx context.Context, session *domain.AssessmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.ID] = session.Clone()
	return nil
}

// Load returns a copy, so callers cannot mutate stored state by pointer.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.AssessmentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session ids.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// ConversationStore implements ports.ConversationStore in memory.
type ConversationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Conversation
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{data: make(map[string]*domain.Conversation)}
}

// Save stores a copy of the conversation.
func (s *ConversationStore) Save(ctx context.Context, conversation *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversation.ID] = conversation.Clone()
	return nil
}

// Load returns a copy of the conversation.
func (s *ConversationStore) Load(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// Delete removes a conversation.
func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}
