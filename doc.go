/*
Package intake is a decision engine for symptom triage conversations: it
gates the first user message by intent, accumulates a structured symptom
snapshot over follow-up turns, and walks the user through a versioned
assessment tree to a recommendation.

# Concept

The engine splits the conversation into two phases. The intake phase is
driven by NLU collaborators: a classifier resolves the routing intent
exactly once per conversation, and an extractor turns each message into a
normalized entity snapshot that is merged monotonically into what is
already known. When no tracked field is missing, the engine hands the
conversation over to the assessment phase: a server-side session that
advances node by node through a declarative tree of questions, movement
tests and terminal assessments, branching on the accumulated answers.

Tree definitions are immutable after loading; session records are mutated
only by the engine, one turn at a time, under per-session locks. A failed
turn commits nothing.

# Usage

The root package wires the embedded default tree with in-memory storage:

	package main

	import (
		"context"
		"log"

		"github.com/kneez/intake"
		"github.com/kneez/intake/pkg/domain"
	)

	func main() {
		eng, err := intake.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		started, err := eng.Start(ctx, "")
		if err != nil {
			log.Fatal(err)
		}
		log.Println("first prompt:", started.Node.Prompt)

		result, err := eng.Advance(ctx, started.Session.ID, "", domain.Answer{
			NodeID:  started.Node.ID,
			Payload: map[string]any{"value": 3},
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println("next:", result.NextNode.ID, "completed:", result.Completed)
	}

Deployments that need durability, distribution, or the conversational
gate wire the pieces directly: stores and lockers from
internal/adapters, the gate from internal/intake, the HTTP surface from
cmd/kneez.
*/
package intake
