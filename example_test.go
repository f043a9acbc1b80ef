package intake_test

import (
	"context"
	"fmt"
	"log"

	"github.com/kneez/intake"
	"github.com/kneez/intake/pkg/domain"
)

// Example walks the default knee tree from the entry question to a
// terminal assessment.
func Example() {
	eng, err := intake.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	started, err := eng.Start(ctx, "")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("entry:", started.Node.ID)

	// A resting pain of nine goes straight to the irritated-joint
	// assessment.
	result, err := eng.Advance(ctx, started.Session.ID, "", domain.Answer{
		NodeID:  started.Node.ID,
		Payload: map[string]any{"value": 9},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("next:", result.NextNode.ID)
	fmt.Println("completed:", result.Completed)

	// Output:
	// entry: q_pain_now
	// next: a_irritated
	// completed: true
}
