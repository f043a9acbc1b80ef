package domain

import "time"

// Conversation is the per-conversation state owned by the intent gate: the
// cached intent (empty until the first classification resolves), the
// accumulated entity snapshot, the transcript and, once intake completes,
// the id of the assessment session that was started.
type Conversation struct {
	ID                  string          `json:"id"`
	Intent              UserIntent      `json:"intent,omitempty"`
	Entities            SymptomEntities `json:"entities"`
	History             []ChatTurn      `json:"history"`
	AssessmentSessionID string          `json:"assessment_session_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewConversation creates an empty conversation record.
func NewConversation(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        id,
		Entities:  EmptyEntities(),
		History:   []ChatTurn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns an independent copy.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	next := *c
	next.Entities = c.Entities.Clone()
	next.History = append([]ChatTurn(nil), c.History...)
	return &next
}
