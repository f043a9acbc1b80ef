package domain

import "strings"

// SymptomSide identifies which knee is affected.
type SymptomSide string

const (
	SideLeft   SymptomSide = "left"
	SideRight  SymptomSide = "right"
	SideBoth   SymptomSide = "both"
	SideUnsure SymptomSide = "unsure"
)

// Known reports whether the side carries real information.
func (s SymptomSide) Known() bool {
	return s == SideLeft || s == SideRight || s == SideBoth
}

// SymptomField names one tracked intake attribute.
type SymptomField string

const (
	FieldSide        SymptomField = "symptom_side"
	FieldDescription SymptomField = "symptom_description"
	FieldLocation    SymptomField = "symptom_location"
	FieldTriggers    SymptomField = "trigger_activity"
)

// SymptomEntities is the structured knowledge accumulated for one
// conversation. MissingFields is derived: only NormalizeEntities and
// MergeEntities recompute it, callers must never author it directly.
type SymptomEntities struct {
	Side        SymptomSide    `json:"symptom_side"`
	Description []string       `json:"symptom_description"`
	Location    string         `json:"symptom_location"`
	Triggers    []string       `json:"trigger_activity"`
	Missing     []SymptomField `json:"missing_fields"`
}

// EmptyEntities returns the snapshot for a conversation that has not
// yielded any symptom information yet.
func EmptyEntities() SymptomEntities {
	return SymptomEntities{
		Side:        SideUnsure,
		Description: []string{},
		Location:    "",
		Triggers:    []string{},
		Missing: []SymptomField{
			FieldSide,
			FieldDescription,
			FieldLocation,
			FieldTriggers,
		},
	}
}

// Complete reports whether every tracked field has been determined.
func (e SymptomEntities) Complete() bool {
	return len(e.Missing) == 0
}

// MissingField reports whether the given field is still undetermined.
func (e SymptomEntities) MissingField(f SymptomField) bool {
	for _, m := range e.Missing {
		if m == f {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the snapshot.
func (e SymptomEntities) Clone() SymptomEntities {
	out := e
	out.Description = append([]string(nil), e.Description...)
	out.Triggers = append([]string(nil), e.Triggers...)
	out.Missing = append([]SymptomField(nil), e.Missing...)
	return out
}

// NormalizeLocation trims the raw location and canonicalizes the
// extractor's "unspecified" placeholder to the empty string.
func NormalizeLocation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.EqualFold(trimmed, "unspecified") {
		return ""
	}
	return trimmed
}

// NormalizeEntities cleans one raw extraction result: blank list entries
// are dropped, duplicates collapse, the location placeholder is
// canonicalized and the missing-fields set is recomputed. It is total
// (malformed input degrades to the empty representation) and idempotent.
func NormalizeEntities(raw SymptomEntities) SymptomEntities {
	side := raw.Side
	if !side.Known() {
		side = SideUnsure
	}

	description := cleanPhrases(raw.Description)
	triggers := cleanPhrases(raw.Triggers)
	location := NormalizeLocation(raw.Location)

	return SymptomEntities{
		Side:        side,
		Description: description,
		Location:    location,
		Triggers:    triggers,
		Missing:     recomputeMissing(side, description, location, triggers),
	}
}

// MergeEntities combines a previous snapshot with a freshly normalized
// extraction. Set-valued fields take the union; side keeps the previous
// value unless it was absent or unsure.
//
// Location policy: both values are normalized, then the previous non-empty
// value wins. This is the single source of truth for location precedence.
func MergeEntities(previous *SymptomEntities, current SymptomEntities) SymptomEntities {
	cur := NormalizeEntities(current)
	if previous == nil {
		return cur
	}
	prev := NormalizeEntities(*previous)

	side := cur.Side
	if prev.Side.Known() {
		side = prev.Side
	}

	description := unionPhrases(prev.Description, cur.Description)
	triggers := unionPhrases(prev.Triggers, cur.Triggers)

	location := prev.Location
	if location == "" {
		location = cur.Location
	}

	return SymptomEntities{
		Side:        side,
		Description: description,
		Location:    location,
		Triggers:    triggers,
		Missing:     recomputeMissing(side, description, location, triggers),
	}
}

// recomputeMissing derives the missing-fields set. The order is fixed and
// matches the completeness rules: side is missing iff absent or unsure,
// lists are missing iff empty, location is missing iff empty.
func recomputeMissing(side SymptomSide, description []string, location string, triggers []string) []SymptomField {
	missing := []SymptomField{}
	if !side.Known() {
		missing = append(missing, FieldSide)
	}
	if len(description) == 0 {
		missing = append(missing, FieldDescription)
	}
	if location == "" {
		missing = append(missing, FieldLocation)
	}
	if len(triggers) == 0 {
		missing = append(missing, FieldTriggers)
	}
	return missing
}

// cleanPhrases drops blank entries and collapses duplicates while keeping
// first-seen order.
func cleanPhrases(items []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func unionPhrases(previous, current []string) []string {
	return cleanPhrases(append(append([]string{}, previous...), current...))
}
