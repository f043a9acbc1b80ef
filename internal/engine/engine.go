// Package engine implements the assessment tree session engine: it owns
// all mutation of assessment sessions, evaluates branch rules against the
// accumulated answers, and advances each session to completion.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/internal/observability"
	"github.com/kneez/intake/internal/tree"
	"github.com/kneez/intake/pkg/domain"
	"github.com/kneez/intake/pkg/ports"
	"github.com/kneez/intake/pkg/session"
)

// Engine advances assessment sessions through their tree.
// Tree definitions are read-only; session records are mutated exclusively
// here, under per-session serialization.
type Engine struct {
	trees    *tree.Registry
	store    ports.SessionStore
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metric set.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine over the given tree registry and session store.
func New(trees *tree.Registry, store ports.SessionStore, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		trees:    trees,
		store:    store,
		sessions: sessions,
		logger:   logging.NewNop(),
		metrics:  observability.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	Session *domain.AssessmentSession
	Node    *domain.Node
}

// Start allocates a new session for the requested tree version (empty
// selects the default) with the cursor at the entry node.
func (e *Engine) Start(ctx context.Context, version string) (*StartResult, error) {
	t, err := e.trees.Tree(version)
	if err != nil {
		return nil, err
	}

	s := domain.NewAssessmentSession(uuid.NewString(), t.Version, t.Entry)

	err = e.sessions.WithLock(ctx, s.ID, func(ctx context.Context) error {
		return e.store.Save(ctx, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	e.metrics.SessionsStarted.Inc()
	e.logger.Info("assessment session started",
		"session_id", s.ID,
		"tree_version", t.Version,
		"entry_node", t.Entry,
	)

	return &StartResult{Session: s, Node: t.EntryNode()}, nil
}

// AdvanceResult is the outcome of one successful advance.
type AdvanceResult struct {
	SessionID string
	Answers   map[string]any
	NextNode  *domain.Node
	Completed bool
}

// Advance records one answer and moves the cursor. All checks run against
// a copy of the session; the store is written only after the whole turn
// succeeds, so a failed advance leaves the session untouched.
func (e *Engine) Advance(ctx context.Context, sessionID, version string, answer domain.Answer) (*AdvanceResult, error) {
	if sessionID == "" {
		return nil, e.advanceFailed("validation", domain.NewValidationError("session_id", "is required"))
	}
	if answer.NodeID == "" {
		return nil, e.advanceFailed("validation", domain.NewValidationError("answer.node_id", "is required"))
	}

	var result *AdvanceResult
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		stored, err := e.store.Load(ctx, sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return e.advanceFailed("not_found", fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound))
			}
			return fmt.Errorf("failed to load session: %w", err)
		}

		if stored.Completed {
			return e.advanceFailed("validation", domain.NewValidationError("session_id", "session is already completed"))
		}
		if version != "" && version != stored.TreeVersion {
			return e.advanceFailed("validation", domain.NewValidationError("version",
				fmt.Sprintf("does not match session tree version %s", stored.TreeVersion)))
		}
		if answer.NodeID != stored.Cursor {
			return e.advanceFailed("validation", domain.NewValidationError("answer.node_id",
				fmt.Sprintf("expected current node %s", stored.Cursor)))
		}

		t, err := e.trees.Tree(stored.TreeVersion)
		if err != nil {
			return e.advanceFailed("tree_configuration", err)
		}
		node, ok := t.Node(stored.Cursor)
		if !ok {
			return e.advanceFailed("tree_configuration", &domain.TreeConfigError{
				Version: stored.TreeVersion,
				NodeID:  stored.Cursor,
				Reason:  "session cursor references a node that no longer exists",
			})
		}

		next := stored.Clone()
		recordAnswer(next, node, answer)

		nextNodeID, err := resolveNext(node, next.Answers)
		if err != nil {
			return e.advanceFailed("tree_configuration", err)
		}
		nextNode, ok := t.Node(nextNodeID)
		if !ok {
			return e.advanceFailed("tree_configuration", &domain.TreeConfigError{
				Version: stored.TreeVersion,
				NodeID:  node.ID,
				Reason:  fmt.Sprintf("branch rule targets unknown node %q", nextNodeID),
			})
		}

		next.Cursor = nextNodeID
		if nextNode.Terminal() {
			next.Completed = true
		}

		if err := e.store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}

		if next.Completed {
			e.metrics.SessionsCompleted.Inc()
		}
		e.logger.Debug("session advanced",
			"session_id", sessionID,
			"from", node.ID,
			"to", nextNodeID,
			"completed", next.Completed,
		)

		result = &AdvanceResult{
			SessionID: sessionID,
			Answers:   next.Answers,
			NextNode:  nextNode,
			Completed: next.Completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// advanceFailed counts the failure and passes the error through.
func (e *Engine) advanceFailed(kind string, err error) error {
	e.metrics.AdvanceFailures.WithLabelValues(kind).Inc()
	return err
}

// recordAnswer stores the answer value under the node id and, when the
// node declares one, under its storage key as well, so branch conditions
// can address either.
func recordAnswer(s *domain.AssessmentSession, node *domain.Node, answer domain.Answer) {
	value := answer.Value()
	s.Answers[node.ID] = value

	switch node.Type {
	case domain.NodeQuestion:
		if node.SaveTo != "" {
			s.Answers[node.SaveTo] = value
		}
	case domain.NodeMovementTest:
		if node.MetricKey != "" {
			if metric, ok := answer.Payload[node.MetricKey]; ok {
				s.Answers[node.MetricKey] = metric
			} else {
				s.Answers[node.MetricKey] = value
			}
		}
	}
}

// resolveNext evaluates the node's rules in declared order and returns
// the first match. No match is a tree-configuration error: the engine
// must not silently stall.
func resolveNext(node *domain.Node, answers map[string]any) (string, error) {
	for _, rule := range node.Rules {
		holds, err := rule.If.Holds(answers)
		if err != nil {
			return "", &domain.TreeConfigError{NodeID: node.ID, Reason: err.Error()}
		}
		if holds {
			return rule.Next, nil
		}
	}
	return "", &domain.TreeConfigError{
		NodeID: node.ID,
		Reason: "no branch rule matched the current answers",
	}
}
