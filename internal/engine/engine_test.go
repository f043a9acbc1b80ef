package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneez/intake/internal/adapters/memory"
	"github.com/kneez/intake/internal/engine"
	"github.com/kneez/intake/internal/tree"
	"github.com/kneez/intake/pkg/domain"
	"github.com/kneez/intake/pkg/session"
)

func newEngine(t *testing.T) (*engine.Engine, *memory.SessionStore) {
	t.Helper()
	registry, err := tree.NewRegistry(tree.Default())
	require.NoError(t, err)
	store := memory.NewSessionStore()
	return engine.New(registry, store, session.NewManager()), store
}

func answer(nodeID string, value any) domain.Answer {
	return domain.Answer{NodeID: nodeID, Payload: map[string]any{"value": value}}
}

func TestEngineStart(t *testing.T) {
	ctx := context.Background()

	t.Run("default version starts at the entry node", func(t *testing.T) {
		eng, store := newEngine(t)
		started, err := eng.Start(ctx, "")
		require.NoError(t, err)

		assert.Equal(t, "v1", started.Session.TreeVersion)
		assert.Equal(t, "q_pain_now", started.Session.Cursor)
		assert.Equal(t, "q_pain_now", started.Node.ID)
		assert.False(t, started.Session.Completed)

		persisted, err := store.Load(ctx, started.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, started.Session.Cursor, persisted.Cursor)
	})

	t.Run("unknown version is a tree configuration error", func(t *testing.T) {
		eng, _ := newEngine(t)
		_, err := eng.Start(ctx, "v99")
		assert.True(t, domain.IsTreeConfig(err))
	})
}

func TestEngineAdvanceValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	started, err := eng.Start(ctx, "")
	require.NoError(t, err)

	t.Run("missing session id", func(t *testing.T) {
		_, err := eng.Advance(ctx, "", "", answer("q_pain_now", 3))
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("missing node id", func(t *testing.T) {
		_, err := eng.Advance(ctx, started.Session.ID, "", domain.Answer{})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := eng.Advance(ctx, "nope", "", answer("q_pain_now", 3))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("version mismatch", func(t *testing.T) {
		_, err := eng.Advance(ctx, started.Session.ID, "v2", answer("q_pain_now", 3))
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("node mismatch leaves the session unmoved", func(t *testing.T) {
		_, err := eng.Advance(ctx, started.Session.ID, "", answer("q_swelling", "yes"))
		assert.True(t, domain.IsValidation(err))

		// The session still accepts the correct node.
		result, err := eng.Advance(ctx, started.Session.ID, "v1", answer("q_pain_now", 3))
		require.NoError(t, err)
		assert.Equal(t, "q_swelling", result.NextNode.ID)
	})
}

func TestEngineAdvanceBranching(t *testing.T) {
	ctx := context.Background()

	t.Run("first matching rule wins", func(t *testing.T) {
		eng, _ := newEngine(t)
		started, err := eng.Start(ctx, "")
		require.NoError(t, err)

		// pain_level 9 matches the range rule before the always rule.
		result, err := eng.Advance(ctx, started.Session.ID, "", answer("q_pain_now", 9))
		require.NoError(t, err)
		assert.Equal(t, "a_irritated", result.NextNode.ID)
		assert.True(t, result.Completed)
	})

	t.Run("always rule catches the fallthrough", func(t *testing.T) {
		eng, _ := newEngine(t)
		started, err := eng.Start(ctx, "")
		require.NoError(t, err)

		result, err := eng.Advance(ctx, started.Session.ID, "", answer("q_pain_now", 2))
		require.NoError(t, err)
		assert.Equal(t, "q_swelling", result.NextNode.ID)
		assert.False(t, result.Completed)
	})

	t.Run("answers are recorded under node id and save_to key", func(t *testing.T) {
		eng, _ := newEngine(t)
		started, err := eng.Start(ctx, "")
		require.NoError(t, err)

		result, err := eng.Advance(ctx, started.Session.ID, "", answer("q_pain_now", 4))
		require.NoError(t, err)
		assert.Equal(t, 4, result.Answers["q_pain_now"])
		assert.Equal(t, 4, result.Answers["pain_level"])
	})

	t.Run("movement test records its metric key", func(t *testing.T) {
		eng, _ := newEngine(t)
		started, err := eng.Start(ctx, "")
		require.NoError(t, err)

		_, err = eng.Advance(ctx, started.Session.ID, "", answer("q_pain_now", 2))
		require.NoError(t, err)
		_, err = eng.Advance(ctx, started.Session.ID, "", answer("q_swelling", "no"))
		require.NoError(t, err)

		result, err := eng.Advance(ctx, started.Session.ID, "", answer("mt_half_squat", "inside"))
		require.NoError(t, err)
		assert.Equal(t, "inside", result.Answers["squat_pain_location"])
		assert.Equal(t, "a_medial", result.NextNode.ID)
		assert.True(t, result.Completed)
	})
}

func TestEngineFullWalk(t *testing.T) {
	ctx := context.Background()
	eng, store := newEngine(t)
	started, err := eng.Start(ctx, "")
	require.NoError(t, err)
	id := started.Session.ID

	steps := []struct {
		answer   domain.Answer
		wantNext string
		wantDone bool
	}{
		{answer("q_pain_now", 3), "q_swelling", false},
		{answer("q_swelling", "no"), "mt_half_squat", false},
		{answer("mt_half_squat", "outside"), "mt_stairs", false},
		{answer("mt_stairs", 6), "a_patellofemoral", true},
	}
	for _, step := range steps {
		result, err := eng.Advance(ctx, id, "v1", step.answer)
		require.NoError(t, err)
		assert.Equal(t, step.wantNext, result.NextNode.ID)
		assert.Equal(t, step.wantDone, result.Completed)
	}

	final, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, final.Completed)
	assert.Equal(t, "a_patellofemoral", final.Cursor)

	t.Run("completed sessions reject further answers", func(t *testing.T) {
		_, err := eng.Advance(ctx, id, "", answer("a_patellofemoral", "x"))
		assert.True(t, domain.IsValidation(err))
	})
}

func TestEngineAtomicity(t *testing.T) {
	ctx := context.Background()

	// A tree without a fallback rule, so an unexpected answer leaves no
	// matching branch.
	noFallback, err := tree.Parse([]byte(`
version: nofallback
entry: q_one
nodes:
  - id: q_one
    type: question
    question: "One?"
    save_to: choice
    rules:
      - if: { op: equals, key: choice, value: expected }
        next: a_done
  - id: a_done
    type: assessment
    summary: done
`))
	require.NoError(t, err)

	store := memory.NewSessionStore()
	registry, err := tree.NewRegistry(tree.Default(), noFallback)
	require.NoError(t, err)
	eng := engine.New(registry, store, session.NewManager())

	started, err := eng.Start(ctx, "nofallback")
	require.NoError(t, err)

	t.Run("no matching rule is a tree configuration error", func(t *testing.T) {
		_, err := eng.Advance(ctx, started.Session.ID, "", answer("q_one", "surprise"))
		assert.True(t, domain.IsTreeConfig(err))
	})

	t.Run("failed advance writes nothing", func(t *testing.T) {
		after, err := store.Load(ctx, started.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, "q_one", after.Cursor)
		assert.Empty(t, after.Answers)
		assert.False(t, after.Completed)
	})

	t.Run("the session still accepts a matching answer", func(t *testing.T) {
		result, err := eng.Advance(ctx, started.Session.ID, "", answer("q_one", "expected"))
		require.NoError(t, err)
		assert.Equal(t, "a_done", result.NextNode.ID)
		assert.True(t, result.Completed)
	})
}
