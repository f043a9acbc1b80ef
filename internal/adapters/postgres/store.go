// Package postgres persists conversations in PostgreSQL, for deployments
// where intake state must survive restarts. Entities and history are
// stored as JSON columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kneez/intake/pkg/domain"
)

// ConversationStore implements ports.ConversationStore on PostgreSQL.
type ConversationStore struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*ConversationStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &ConversationStore{db: db}, nil
}

// NewConversationStore wraps an existing connection pool.
func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// EnsureSchema creates the conversations table if it does not exist.
func (s *ConversationStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			intent TEXT NOT NULL DEFAULT '',
			entities JSONB NOT NULL,
			history JSONB NOT NULL,
			assessment_session_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Save upserts the conversation.
func (s *ConversationStore) Save(ctx context.Context, conversation *domain.Conversation) error {
	entitiesJSON, err := json.Marshal(conversation.Entities)
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}
	historyJSON, err := json.Marshal(conversation.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now().UTC()
	}
	conversation.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO conversations (id, intent, entities, history, assessment_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			intent = $2,
			entities = $3,
			history = $4,
			assessment_session_id = $5,
			updated_at = $7
	`
	_, err = s.db.ExecContext(ctx, query,
		conversation.ID,
		string(conversation.Intent),
		entitiesJSON,
		historyJSON,
		conversation.AssessmentSessionID,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	return err
}

// Load retrieves a conversation by id.
func (s *ConversationStore) Load(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	query := `
		SELECT id, intent, entities, history, assessment_session_id, created_at, updated_at
		FROM conversations WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, conversationID)

	var (
		conv         domain.Conversation
		intent       string
		entitiesJSON []byte
		historyJSON  []byte
	)
	err := row.Scan(
		&conv.ID,
		&intent,
		&entitiesJSON,
		&historyJSON,
		&conv.AssessmentSessionID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}

	conv.Intent = domain.UserIntent(intent)
	if err := json.Unmarshal(entitiesJSON, &conv.Entities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &conv.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &conv, nil
}

// Delete removes a conversation.
func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID)
	return err
}

// Close closes the connection pool.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}
