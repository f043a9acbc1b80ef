package intake

import (
	"context"
	"log/slog"

	"github.com/kneez/intake/internal/adapters/memory"
	"github.com/kneez/intake/internal/engine"
	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/internal/tree"
	"github.com/kneez/intake/pkg/domain"
	"github.com/kneez/intake/pkg/ports"
	"github.com/kneez/intake/pkg/session"
)

// Engine is the high-level entry point for embedding the assessment
// engine as a library. It wraps the internal session engine with default
// wiring: the embedded tree and in-memory storage.
type Engine struct {
	engine   *engine.Engine
	registry *tree.Registry

	store    ports.SessionStore
	treesDir string
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore injects a custom session store, bypassing the in-memory
// default.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithTreesDir layers tree definitions from a directory over the embedded
// default.
func WithTreesDir(dir string) Option {
	return func(e *Engine) {
		e.treesDir = dir
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine with the embedded default tree. Tree definitions
// are validated up front; a defective tree fails construction, never a
// session.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  memory.NewSessionStore(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	trees := []*tree.Tree{tree.Default()}
	if e.treesDir != "" {
		extra, err := tree.LoadDir(e.treesDir)
		if err != nil {
			return nil, err
		}
		trees = append(trees, extra...)
	}
	registry, err := tree.NewRegistry(trees...)
	if err != nil {
		return nil, err
	}

	e.registry = registry
	e.engine = engine.New(registry, e.store, session.NewManager(),
		engine.WithLogger(e.logger))
	return e, nil
}

// Start allocates a new assessment session for the given tree version;
// the empty string selects the default.
func (e *Engine) Start(ctx context.Context, version string) (*engine.StartResult, error) {
	return e.engine.Start(ctx, version)
}

// Advance records one answer for the session's current node and moves the
// cursor along the first matching branch rule.
func (e *Engine) Advance(ctx context.Context, sessionID, version string, answer domain.Answer) (*engine.AdvanceResult, error) {
	return e.engine.Advance(ctx, sessionID, version, answer)
}

// Versions lists the loaded tree versions.
func (e *Engine) Versions() []string {
	return e.registry.Versions()
}
