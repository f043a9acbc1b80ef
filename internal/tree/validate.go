package tree

import (
	"fmt"
	"strings"

	"github.com/kneez/intake/pkg/domain"
)

// Validate checks a tree for authoring defects: a resolvable entry node,
// well-formed conditions, resolvable rule targets, no unreachable nodes,
// terminal nodes without rules and non-terminal nodes with at least one
// rule. Errors here are tree-configuration errors by definition.
func Validate(t *Tree) error {
	var problems []string

	if t.Entry == "" {
		problems = append(problems, "missing entry node id")
	} else if _, ok := t.nodes[t.Entry]; !ok {
		problems = append(problems, fmt.Sprintf("entry node %q not found", t.Entry))
	}

	for _, id := range t.order {
		n := t.nodes[id]

		switch n.Type {
		case domain.NodeQuestion, domain.NodeMovementTest:
			if len(n.Rules) == 0 {
				problems = append(problems, fmt.Sprintf("node %q has no branch rules", id))
			}
		case domain.NodeAssessment:
			if len(n.Rules) > 0 {
				problems = append(problems, fmt.Sprintf("terminal node %q must not have branch rules", id))
			}
		default:
			problems = append(problems, fmt.Sprintf("node %q has unknown type %q", id, n.Type))
		}

		if n.Type == domain.NodeMovementTest && n.MetricKey == "" {
			problems = append(problems, fmt.Sprintf("movement test %q missing metric_key", id))
		}

		for i, rule := range n.Rules {
			if err := rule.If.Validate(); err != nil {
				problems = append(problems, fmt.Sprintf("node %q rule %d: %v", id, i, err))
			}
			if rule.Next == "" {
				problems = append(problems, fmt.Sprintf("node %q rule %d: missing next node", id, i))
			} else if _, ok := t.nodes[rule.Next]; !ok {
				problems = append(problems, fmt.Sprintf("node %q rule %d: target %q not found", id, i, rule.Next))
			}
		}
	}

	if len(problems) == 0 {
		for _, id := range t.order {
			if !reachable(t)[id] {
				problems = append(problems, fmt.Sprintf("node %q is unreachable from entry", id))
			}
		}
	}

	if len(problems) > 0 {
		return &domain.TreeConfigError{
			Version: t.Version,
			Reason:  fmt.Sprintf("found %d problems:\n- %s", len(problems), strings.Join(problems, "\n- ")),
		}
	}
	return nil
}

// Lint reports non-fatal authoring smells: rule lists whose conditions can
// all fail at runtime. The engine treats a no-match as a hard
// tree-configuration error, so authors usually want a trailing always
// rule.
func Lint(t *Tree) []string {
	var warnings []string
	for _, id := range t.order {
		n := t.nodes[id]
		if len(n.Rules) == 0 {
			continue
		}
		hasAlways := false
		for _, rule := range n.Rules {
			if rule.If.Op == domain.OpAlways {
				hasAlways = true
				break
			}
		}
		if !hasAlways {
			warnings = append(warnings,
				fmt.Sprintf("node %q has no always rule; unanswered branches will fail as configuration errors", id))
		}
	}
	return warnings
}

func reachable(t *Tree) map[string]bool {
	visited := make(map[string]bool, len(t.nodes))
	queue := []string{t.Entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		for _, rule := range n.Rules {
			if !visited[rule.Next] {
				queue = append(queue, rule.Next)
			}
		}
	}
	return visited
}
