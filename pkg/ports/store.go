package ports

import (
	"context"

	"github.com/kneez/intake/pkg/domain"
)

// SessionStore persists assessment sessions.
// Implementations must return independent copies so callers cannot mutate
// stored state through shared pointers.
type SessionStore interface {
	// Save persists the session keyed by its id.
	Save(ctx context.Context, session *domain.AssessmentSession) error

	// Load retrieves a session by id.
	// Returns domain.ErrSessionNotFound if it does not exist.
	Load(ctx context.Context, sessionID string) (*domain.AssessmentSession, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of stored sessions.
	List(ctx context.Context) ([]string, error)
}

// ConversationStore persists per-conversation intake state.
type ConversationStore interface {
	// Save persists the conversation keyed by its id.
	Save(ctx context.Context, conversation *domain.Conversation) error

	// Load retrieves a conversation by id.
	// Returns domain.ErrConversationNotFound if it does not exist.
	Load(ctx context.Context, conversationID string) (*domain.Conversation, error)

	// Delete removes a conversation.
	Delete(ctx context.Context, conversationID string) error
}
