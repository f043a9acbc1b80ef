package intake

import (
	"fmt"
	"strings"

	"github.com/kneez/intake/pkg/domain"
)

// Summary renders the accumulated snapshot as the bullet list shown to the
// user when intake completes.
func Summary(entities domain.SymptomEntities) string {
	var parts []string

	if entities.Side.Known() {
		parts = append(parts, fmt.Sprintf("• Side: %s knee", entities.Side))
	}
	if entities.Location != "" {
		parts = append(parts, fmt.Sprintf("• Location: %s", entities.Location))
	}
	if len(entities.Description) > 0 {
		parts = append(parts, fmt.Sprintf("• How it feels: %s", strings.Join(entities.Description, ", ")))
	}
	if len(entities.Triggers) > 0 {
		parts = append(parts, fmt.Sprintf("• Triggered by: %s", strings.Join(entities.Triggers, ", ")))
	}
	if len(entities.Missing) > 0 {
		fields := make([]string, len(entities.Missing))
		for i, f := range entities.Missing {
			fields[i] = string(f)
		}
		parts = append(parts, fmt.Sprintf("• Still unclear: %s (we can refine this later)", strings.Join(fields, ", ")))
	}

	return strings.Join(parts, "\n")
}
