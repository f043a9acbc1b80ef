package ports

import (
	"context"

	"github.com/kneez/intake/pkg/domain"
)

// IntentClassifier resolves the routing intent of a user's first message.
// The gate guarantees at most one call per conversation.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) (domain.UserIntent, error)
}

// EntityExtractor turns free text into a normalized entity snapshot.
// Extraction results are NOT merged: merging is the engine's
// responsibility.
type EntityExtractor interface {
	Extract(ctx context.Context, message string, previous *domain.SymptomEntities) (domain.SymptomEntities, error)

	// Healthy reports whether the extractor can currently serve requests.
	// The gate checks this before committing to the acute-relief flow.
	Healthy(ctx context.Context) bool
}

// EducationService produces a free-form educational reply, returned to the
// user verbatim.
type EducationService interface {
	Reply(ctx context.Context, message string, history []domain.ChatTurn) (string, error)
}
