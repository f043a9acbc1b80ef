package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kneez/intake/pkg/domain"
)

func TestNormalizeEntities(t *testing.T) {
	t.Run("cleans lists and recomputes missing", func(t *testing.T) {
		got := domain.NormalizeEntities(domain.SymptomEntities{
			Side:        domain.SideLeft,
			Description: []string{"sharp pain", "", "sharp pain", "stiff"},
			Location:    "  behind kneecap  ",
			Triggers:    []string{"running"},
			// Author-supplied missing fields are ignored.
			Missing: []domain.SymptomField{domain.FieldSide},
		})

		assert.Equal(t, domain.SideLeft, got.Side)
		assert.Equal(t, []string{"sharp pain", "stiff"}, got.Description)
		assert.Equal(t, "behind kneecap", got.Location)
		assert.Equal(t, []string{"running"}, got.Triggers)
		assert.Empty(t, got.Missing)
	})

	t.Run("unknown side degrades to unsure and is missing", func(t *testing.T) {
		got := domain.NormalizeEntities(domain.SymptomEntities{Side: "sideways"})
		assert.Equal(t, domain.SideUnsure, got.Side)
		assert.True(t, got.MissingField(domain.FieldSide))
	})

	t.Run("unspecified location placeholder is dropped", func(t *testing.T) {
		got := domain.NormalizeEntities(domain.SymptomEntities{Location: "Unspecified"})
		assert.Equal(t, "", got.Location)
		assert.True(t, got.MissingField(domain.FieldLocation))
	})

	t.Run("idempotent", func(t *testing.T) {
		raw := domain.SymptomEntities{
			Side:        "nonsense",
			Description: []string{" ", "dull ache", "dull ache"},
			Location:    "unspecified",
			Triggers:    []string{"stairs", ""},
		}
		once := domain.NormalizeEntities(raw)
		twice := domain.NormalizeEntities(once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty input yields the empty representation", func(t *testing.T) {
		got := domain.NormalizeEntities(domain.SymptomEntities{})
		assert.Equal(t, domain.EmptyEntities(), got)
		assert.False(t, got.Complete())
	})
}

func TestMergeEntities(t *testing.T) {
	t.Run("nil previous is pure normalization", func(t *testing.T) {
		cur := domain.SymptomEntities{Side: domain.SideRight, Description: []string{"popping"}}
		got := domain.MergeEntities(nil, cur)
		assert.Equal(t, domain.NormalizeEntities(cur), got)
	})

	t.Run("previous known side wins over new side", func(t *testing.T) {
		prev := domain.NormalizeEntities(domain.SymptomEntities{Side: domain.SideLeft})
		got := domain.MergeEntities(&prev, domain.SymptomEntities{Side: domain.SideRight})
		assert.Equal(t, domain.SideLeft, got.Side)
	})

	t.Run("unsure previous side defers to new side", func(t *testing.T) {
		prev := domain.EmptyEntities()
		got := domain.MergeEntities(&prev, domain.SymptomEntities{Side: domain.SideBoth})
		assert.Equal(t, domain.SideBoth, got.Side)
	})

	t.Run("set fields take the union keeping first-seen order", func(t *testing.T) {
		prev := domain.NormalizeEntities(domain.SymptomEntities{
			Description: []string{"sharp pain"},
			Triggers:    []string{"running"},
		})
		got := domain.MergeEntities(&prev, domain.SymptomEntities{
			Description: []string{"stiff", "sharp pain"},
			Triggers:    []string{"squats"},
		})
		assert.Equal(t, []string{"sharp pain", "stiff"}, got.Description)
		assert.Equal(t, []string{"running", "squats"}, got.Triggers)
	})

	t.Run("previous non-empty location wins", func(t *testing.T) {
		prev := domain.NormalizeEntities(domain.SymptomEntities{Location: "inside of knee"})
		got := domain.MergeEntities(&prev, domain.SymptomEntities{Location: "front of knee"})
		assert.Equal(t, "inside of knee", got.Location)
	})

	t.Run("unspecified previous location defers to new location", func(t *testing.T) {
		prev := domain.NormalizeEntities(domain.SymptomEntities{Location: "unspecified"})
		got := domain.MergeEntities(&prev, domain.SymptomEntities{Location: "front of knee"})
		assert.Equal(t, "front of knee", got.Location)
	})

	t.Run("missing fields reflect exactly the empty fields", func(t *testing.T) {
		prev := domain.NormalizeEntities(domain.SymptomEntities{Side: domain.SideLeft})
		got := domain.MergeEntities(&prev, domain.SymptomEntities{
			Description: []string{"dull ache"},
			Location:    "behind kneecap",
		})
		assert.Equal(t, []domain.SymptomField{domain.FieldTriggers}, got.Missing)
		assert.False(t, got.Complete())

		full := domain.MergeEntities(&got, domain.SymptomEntities{Triggers: []string{"stairs"}})
		assert.Empty(t, full.Missing)
		assert.True(t, full.Complete())
	})

	t.Run("set fields merge associatively", func(t *testing.T) {
		a := domain.SymptomEntities{Description: []string{"sharp pain"}, Triggers: []string{"running"}}
		b := domain.SymptomEntities{Description: []string{"stiff"}, Triggers: []string{"squats"}}
		c := domain.SymptomEntities{Description: []string{"popping", "stiff"}, Triggers: []string{"stairs"}}

		ab := domain.MergeEntities(nil, a)
		ab = domain.MergeEntities(&ab, b)
		left := domain.MergeEntities(&ab, c)

		bc := domain.MergeEntities(nil, b)
		bc = domain.MergeEntities(&bc, c)
		right := domain.MergeEntities(&a, bc)

		assert.ElementsMatch(t, left.Description, right.Description)
		assert.ElementsMatch(t, left.Triggers, right.Triggers)
	})

	t.Run("merging the same extraction twice is stable", func(t *testing.T) {
		cur := domain.SymptomEntities{
			Side:        domain.SideRight,
			Description: []string{"sharp pain"},
			Location:    "front of knee",
			Triggers:    []string{"running"},
		}
		once := domain.MergeEntities(nil, cur)
		twice := domain.MergeEntities(&once, cur)
		assert.Equal(t, once, twice)
	})
}

func TestCloneIsIndependent(t *testing.T) {
	orig := domain.NormalizeEntities(domain.SymptomEntities{
		Side:        domain.SideLeft,
		Description: []string{"sharp pain"},
		Triggers:    []string{"running"},
	})
	clone := orig.Clone()
	clone.Description[0] = "mutated"
	clone.Triggers = append(clone.Triggers, "extra")

	assert.Equal(t, "sharp pain", orig.Description[0])
	assert.Len(t, orig.Triggers, 1)
}
