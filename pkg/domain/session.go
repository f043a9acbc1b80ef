package domain

import (
	"encoding/json"
	"time"
)

// AssessmentSession is one stateful walk through an assessment tree.
// TreeVersion is immutable after creation; Answers is append-only and
// mutated exclusively by the session engine.
type AssessmentSession struct {
	ID          string         `json:"id"`
	TreeVersion string         `json:"tree_version"`
	Cursor      string         `json:"cursor"`
	Completed   bool           `json:"completed"`
	Answers     map[string]any `json:"answers"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewAssessmentSession creates an active session with the cursor placed at
// the tree's entry node.
func NewAssessmentSession(id, treeVersion, entryNodeID string) *AssessmentSession {
	now := time.Now().UTC()
	return &AssessmentSession{
		ID:          id,
		TreeVersion: treeVersion,
		Cursor:      entryNodeID,
		Answers:     make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a copy with an independent answers map, so a failed
// advance can be discarded without touching the stored session.
func (s *AssessmentSession) Clone() *AssessmentSession {
	if s == nil {
		return nil
	}
	next := *s
	next.Answers = make(map[string]any, len(s.Answers))
	for k, v := range s.Answers {
		next.Answers[k] = v
	}
	return &next
}

// Answer is the payload submitted for the session's current node. NodeID
// addresses the node being answered; the remaining keys are the
// node-specific payload.
type Answer struct {
	NodeID  string
	Payload map[string]any
}

// UnmarshalJSON splits node_id from the free-form payload, preserving the
// wire shape {node_id, ...payload}.
func (a *Answer) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["node_id"].(string); ok {
		a.NodeID = id
	}
	delete(raw, "node_id")
	a.Payload = raw
	return nil
}

// MarshalJSON restores the flat wire shape.
func (a Answer) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(a.Payload)+1)
	for k, v := range a.Payload {
		raw[k] = v
	}
	raw["node_id"] = a.NodeID
	return json.Marshal(raw)
}

// Value picks the scalar to record for this answer: the conventional
// "value" key when present, the sole payload entry when there is exactly
// one, otherwise the whole payload map.
func (a Answer) Value() any {
	if v, ok := a.Payload["value"]; ok {
		return v
	}
	if len(a.Payload) == 1 {
		for _, v := range a.Payload {
			return v
		}
	}
	if len(a.Payload) == 0 {
		return nil
	}
	return a.Payload
}
