package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ConditionOp enumerates the closed set of branch condition variants.
type ConditionOp string

const (
	OpAlways ConditionOp = "always"
	OpEquals ConditionOp = "equals"
	OpIn     ConditionOp = "in"
	OpRange  ConditionOp = "range"
)

// Condition is one branch predicate, evaluated against the session's
// accumulated answers. Key addresses an answer by node id or by a declared
// storage key. Min/Max are optional bounds for the range variant.
type Condition struct {
	Op     ConditionOp `json:"op" yaml:"op"`
	Key    string      `json:"key,omitempty" yaml:"key,omitempty"`
	Value  any         `json:"value,omitempty" yaml:"value,omitempty"`
	Values []any       `json:"values,omitempty" yaml:"values,omitempty"`
	Min    *float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64    `json:"max,omitempty" yaml:"max,omitempty"`
}

// BranchRule pairs a condition with the node it leads to. Rules are
// evaluated in declared order; the first holding condition wins.
type BranchRule struct {
	If   Condition `json:"if" yaml:"if"`
	Next string    `json:"next" yaml:"next"`
}

// Validate checks that the condition is structurally usable. Unknown
// variants are rejected here so that tree loading fails fast instead of
// failing mid-session.
func (c Condition) Validate() error {
	switch c.Op {
	case OpAlways:
		return nil
	case OpEquals:
		if c.Key == "" {
			return fmt.Errorf("equals condition requires a key")
		}
		return nil
	case OpIn:
		if c.Key == "" {
			return fmt.Errorf("in condition requires a key")
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("in condition requires values")
		}
		return nil
	case OpRange:
		if c.Key == "" {
			return fmt.Errorf("range condition requires a key")
		}
		if c.Min == nil && c.Max == nil {
			return fmt.Errorf("range condition requires at least one bound")
		}
		return nil
	default:
		return fmt.Errorf("unknown condition op %q", c.Op)
	}
}

// Holds evaluates the condition against the answers map. A missing key
// simply fails the condition; an unknown op is an evaluation error because
// it indicates a tree authoring defect that validation should have caught.
func (c Condition) Holds(answers map[string]any) (bool, error) {
	switch c.Op {
	case OpAlways:
		return true, nil
	case OpEquals:
		stored, ok := answers[c.Key]
		if !ok {
			return false, nil
		}
		return valuesEqual(stored, c.Value), nil
	case OpIn:
		stored, ok := answers[c.Key]
		if !ok {
			return false, nil
		}
		for _, candidate := range c.Values {
			if valuesEqual(stored, candidate) {
				return true, nil
			}
		}
		return false, nil
	case OpRange:
		stored, ok := answers[c.Key]
		if !ok {
			return false, nil
		}
		n, ok := toFloat(stored)
		if !ok {
			return false, nil
		}
		if c.Min != nil && n < *c.Min {
			return false, nil
		}
		if c.Max != nil && n > *c.Max {
			return false, nil
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown condition op %q", c.Op)
	}
}

// valuesEqual compares an answer with a condition operand. Numbers arrive
// in mixed concrete types (int from yaml, float64 or json.Number from
// json), so numeric values compare numerically; everything else compares
// strictly.
func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
