// Package intake implements the conversational intake flow: the
// missing-field question prioritizer and the intent gate that routes a
// conversation's turns.
package intake

import "github.com/kneez/intake/pkg/domain"

// The follow-up questions, one per tracked field.
const (
	questionSide        = "Which knee is bothering you — left, right, or both?"
	questionLocation    = "Where exactly around your knee do you feel it most (front, back, inside, outside, above/below kneecap)?"
	questionTriggers    = "What movements or activities tend to bring on the pain (running, squats, stairs, etc.)?"
	questionDescription = "How would you describe the pain or discomfort (sharp, dull, stiffness, numbness, tingling, popping, etc.)?"
)

// NextQuestion picks the single next follow-up question for the missing
// fields, using a fixed precedence: side, then location, then triggers,
// then description. Returns false when nothing is missing.
func NextQuestion(entities domain.SymptomEntities) (string, bool) {
	switch {
	case entities.MissingField(domain.FieldSide):
		return questionSide, true
	case entities.MissingField(domain.FieldLocation):
		return questionLocation, true
	case entities.MissingField(domain.FieldTriggers):
		return questionTriggers, true
	case entities.MissingField(domain.FieldDescription):
		return questionDescription, true
	default:
		return "", false
	}
}
