package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneez/intake/pkg/domain"
)

func TestAnswerWireShape(t *testing.T) {
	t.Run("unmarshal splits node_id from the payload", func(t *testing.T) {
		var a domain.Answer
		err := json.Unmarshal([]byte(`{"node_id":"q_pain_now","value":7,"note":"after stairs"}`), &a)
		require.NoError(t, err)

		assert.Equal(t, "q_pain_now", a.NodeID)
		assert.Equal(t, 7.0, a.Payload["value"])
		assert.Equal(t, "after stairs", a.Payload["note"])
		_, hasNodeID := a.Payload["node_id"]
		assert.False(t, hasNodeID)
	})

	t.Run("marshal restores the flat shape", func(t *testing.T) {
		a := domain.Answer{NodeID: "q_swelling", Payload: map[string]any{"value": "yes"}}
		data, err := json.Marshal(a)
		require.NoError(t, err)
		assert.JSONEq(t, `{"node_id":"q_swelling","value":"yes"}`, string(data))
	})
}

func TestAnswerValue(t *testing.T) {
	t.Run("value key wins", func(t *testing.T) {
		a := domain.Answer{Payload: map[string]any{"value": 7.0, "note": "x"}}
		assert.Equal(t, 7.0, a.Value())
	})

	t.Run("sole entry is used when value is absent", func(t *testing.T) {
		a := domain.Answer{Payload: map[string]any{"pain_level": 3.0}}
		assert.Equal(t, 3.0, a.Value())
	})

	t.Run("multiple entries return the payload map", func(t *testing.T) {
		payload := map[string]any{"a": 1.0, "b": 2.0}
		a := domain.Answer{Payload: payload}
		assert.Equal(t, payload, a.Value())
	})

	t.Run("empty payload yields nil", func(t *testing.T) {
		assert.Nil(t, domain.Answer{}.Value())
	})
}

func TestAssessmentSessionClone(t *testing.T) {
	s := domain.NewAssessmentSession("s1", "v1", "entry")
	s.Answers["k"] = "v"

	clone := s.Clone()
	clone.Answers["k"] = "mutated"
	clone.Cursor = "elsewhere"

	assert.Equal(t, "v", s.Answers["k"])
	assert.Equal(t, "entry", s.Cursor)
}
