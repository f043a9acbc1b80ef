package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kneez/intake/internal/engine"
	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/internal/observability"
	"github.com/kneez/intake/pkg/domain"
	"github.com/kneez/intake/pkg/ports"
	"github.com/kneez/intake/pkg/session"
)

// Canned replies for the non-extraction routes.
const (
	replyRedFlag = "Your description could be a red flag. Please seek in-person medical care or urgent evaluation to stay safe."

	replyOutOfScope = "I'm focused on knee concerns. Can you share what's going on with your knees?"

	replyBoundedScope = "I can guide quick assessments for current knee pain flare-ups. If you need general education or another type of help, let me know and I can keep it informational."

	replyApology = "Sorry, I had trouble understanding that. Can you try rephrasing your last message?"

	replyAssessmentRunning = "We're in the middle of your movement assessment. Please answer the current step so I can keep going."

	summaryIntro      = "Got it, thanks. Here's what I understand about your knee so far:"
	summaryTransition = "Next, I'll guide you through some simple movement checks to refine this further."
)

// Gate orchestrates one intake turn: it resolves the conversation's intent
// (at most one classifier call per conversation), routes the turn, and on
// the acute-relief route runs the extract→normalize→merge→prioritize
// pipeline until intake completes and an assessment session starts.
//
// State is mutated only after every collaborator call for the turn has
// succeeded; a failed or cancelled turn commits nothing.
type Gate struct {
	conversations ports.ConversationStore
	classifier    ports.IntentClassifier
	extractor     ports.EntityExtractor
	education     ports.EducationService
	engine        *engine.Engine
	locks         *session.Manager
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// Option configures the Gate.
type Option func(*Gate)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithMetrics sets the metric set.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// NewGate wires the gate with its collaborators and the session engine
// used for the intake-complete hand-off.
func NewGate(
	conversations ports.ConversationStore,
	classifier ports.IntentClassifier,
	extractor ports.EntityExtractor,
	education ports.EducationService,
	eng *engine.Engine,
	locks *session.Manager,
	opts ...Option,
) *Gate {
	g := &Gate{
		conversations: conversations,
		classifier:    classifier,
		extractor:     extractor,
		education:     education,
		engine:        eng,
		locks:         locks,
		logger:        logging.NewNop(),
		metrics:       observability.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TurnResult is the outcome of one intake turn.
type TurnResult struct {
	ConversationID string
	Reply          string
	Intent         domain.UserIntent
	Entities       *domain.SymptomEntities
	IntakeComplete bool

	// Set when intake completed this turn and an assessment session was
	// started.
	SessionID string
	EntryNode *domain.Node
}

// HandleTurn processes one user message for the conversation. Turns for
// the same conversation are serialized; turns for different conversations
// run in parallel.
func (g *Gate) HandleTurn(ctx context.Context, conversationID, message string) (*TurnResult, error) {
	if conversationID == "" {
		return nil, domain.NewValidationError("conversation_id", "is required")
	}
	if message == "" {
		return nil, domain.NewValidationError("message", "is required")
	}

	var result *TurnResult
	err := g.locks.WithLock(ctx, conversationID, func(ctx context.Context) error {
		conv, err := g.conversations.Load(ctx, conversationID)
		if errors.Is(err, domain.ErrConversationNotFound) {
			conv = domain.NewConversation(conversationID)
		} else if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}

		result, err = g.handleTurn(ctx, conv, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Gate) handleTurn(ctx context.Context, conv *domain.Conversation, message string) (*TurnResult, error) {
	if conv.AssessmentSessionID != "" {
		g.metrics.TurnsTotal.WithLabelValues("assessment_running").Inc()
		return g.turn(conv, replyAssessmentRunning), nil
	}

	intent, err := g.resolveIntent(ctx, conv, message)
	if err != nil {
		// Classifier failure: apologize and keep the conversation
		// untouched so the user can retry the same turn.
		g.metrics.TurnsTotal.WithLabelValues("upstream_error").Inc()
		return g.turn(conv, replyApology), nil
	}

	g.metrics.TurnsTotal.WithLabelValues(string(intent)).Inc()

	switch intent {
	case domain.IntentRedFlag:
		return g.turn(conv, replyRedFlag), nil
	case domain.IntentOutOfScope:
		return g.turn(conv, replyOutOfScope), nil
	case domain.IntentGeneralEducation:
		return g.educationTurn(ctx, conv, message)
	case domain.IntentAcuteRelief:
		return g.acuteReliefTurn(ctx, conv, message)
	default:
		// rehab_request and any future non-acute intent get the bounded
		// scope message.
		return g.turn(conv, replyBoundedScope), nil
	}
}

// resolveIntent returns the cached intent or calls the classifier exactly
// once for this conversation. A successful classification is persisted
// immediately so later turns never re-classify, even if the rest of this
// turn fails.
func (g *Gate) resolveIntent(ctx context.Context, conv *domain.Conversation, message string) (domain.UserIntent, error) {
	if conv.Intent != "" {
		return conv.Intent, nil
	}

	g.metrics.ClassifierCalls.Inc()
	intent, err := g.classifier.Classify(ctx, message)
	if err != nil {
		g.logUpstream("classifier", err)
		return "", err
	}
	if !intent.Valid() {
		err := &domain.UpstreamError{
			Service:    "classifier",
			RawPayload: string(intent),
			Err:        errors.New("intent outside the closed taxonomy"),
		}
		g.logUpstream("classifier", err)
		return "", err
	}

	conv.Intent = intent
	if err := g.conversations.Save(ctx, conv); err != nil {
		return "", fmt.Errorf("failed to persist resolved intent: %w", err)
	}
	g.logger.Info("intent resolved", "conversation_id", conv.ID, "intent", intent)
	return intent, nil
}

func (g *Gate) educationTurn(ctx context.Context, conv *domain.Conversation, message string) (*TurnResult, error) {
	reply, err := g.education.Reply(ctx, message, conv.History)
	if err != nil {
		g.logUpstream("education", err)
		return g.turn(conv, replyApology), nil
	}

	conv.History = append(conv.History,
		domain.ChatTurn{From: "user", Text: message},
		domain.ChatTurn{From: "bot", Text: reply},
	)
	if err := g.conversations.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}
	return g.turn(conv, reply), nil
}

func (g *Gate) acuteReliefTurn(ctx context.Context, conv *domain.Conversation, message string) (*TurnResult, error) {
	if !g.extractor.Healthy(ctx) {
		return nil, domain.ErrExtractorUnavailable
	}

	previous := conv.Entities.Clone()
	extracted, err := g.extractor.Extract(ctx, message, &previous)
	if err != nil {
		g.metrics.ExtractionFailures.Inc()
		g.logUpstream("extractor", err)
		return g.turn(conv, replyApology), nil
	}

	merged := domain.MergeEntities(&previous, extracted)
	conv.Entities = merged
	conv.History = append(conv.History, domain.ChatTurn{From: "user", Text: message})

	if question, ok := NextQuestion(merged); ok {
		conv.History = append(conv.History, domain.ChatTurn{From: "bot", Text: question})
		if err := g.conversations.Save(ctx, conv); err != nil {
			return nil, fmt.Errorf("failed to persist conversation: %w", err)
		}
		return g.turn(conv, question), nil
	}

	// Intake is complete: persist the final snapshot first so a failed
	// session start can be retried on the next turn without losing it.
	if err := g.conversations.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}

	started, err := g.engine.Start(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to start assessment session: %w", err)
	}

	reply := fmt.Sprintf("%s\n\n%s\n\n%s", summaryIntro, Summary(merged), summaryTransition)
	conv.AssessmentSessionID = started.Session.ID
	conv.History = append(conv.History, domain.ChatTurn{From: "bot", Text: reply})
	if err := g.conversations.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}

	result := g.turn(conv, reply)
	result.IntakeComplete = true
	result.SessionID = started.Session.ID
	result.EntryNode = started.Node
	return result, nil
}

func (g *Gate) turn(conv *domain.Conversation, reply string) *TurnResult {
	entities := conv.Entities.Clone()
	return &TurnResult{
		ConversationID: conv.ID,
		Reply:          reply,
		Intent:         conv.Intent,
		Entities:       &entities,
	}
}

func (g *Gate) logUpstream(service string, err error) {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		g.logger.Error("collaborator failed",
			"service", service,
			"err", err,
			"raw_payload", ue.RawPayload,
		)
		return
	}
	g.logger.Error("collaborator failed", "service", service, "err", err)
}
