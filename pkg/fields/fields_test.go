package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSelectionDropsUnknownDetailFields(t *testing.T) {
	s := NewSelection(true, false, []string{"source", "bogus", "action"}, nil)
	assert.Equal(t, []string{"source", "action"}, s.Detail())
}

func TestNewSelectionAllUnknownSelectsNothing(t *testing.T) {
	s := NewSelection(true, false, []string{"bogus", "nonsense"}, nil)
	assert.Empty(t, s.Detail(), "a request that validates to nothing must not fall back to all fields")
	assert.NotEqual(t, DetailFields, s.Detail())
}

func TestSelectionDetail(t *testing.T) {
	t.Run("nil means all in canonical order", func(t *testing.T) {
		s := NewSelection(true, false, nil, nil)
		assert.Equal(t, DetailFields, s.Detail())
	})
	t.Run("request order kept", func(t *testing.T) {
		s := NewSelection(true, false, []string{"action", "source"}, nil)
		assert.Equal(t, []string{"action", "source"}, s.Detail())
	})
	t.Run("empty without details", func(t *testing.T) {
		s := NewSelection(false, false, []string{"source"}, nil)
		assert.Empty(t, s.Detail())
	})
}

func TestNeedsEnrichment(t *testing.T) {
	assert.False(t, NewSelection(false, false, nil, nil).NeedsEnrichment())
	assert.True(t, NewSelection(true, false, nil, nil).NeedsEnrichment())
	assert.True(t, NewSelection(false, true, nil, nil).NeedsEnrichment())
}

func TestDiscovery(t *testing.T) {
	d := NewDiscovery()
	ObserveKeys(d, map[string]string{"owner": "a", "review_date": "b"})
	ObserveKeys(d, map[string]int{"owner": 1, "cost_center": 2})

	assert.True(t, d.Seen("owner"))
	assert.False(t, d.Seen("missing"))
	assert.Equal(t, []string{"cost_center", "owner", "review_date"}, d.Keys())
}

func TestDocColumns(t *testing.T) {
	d := NewDiscovery()
	ObserveKeys(d, map[string]string{"owner": "", "review_date": "", "cost_center": ""})

	t.Run("nil request takes all observed sorted", func(t *testing.T) {
		cols, missing := NewSelection(false, true, nil, nil).DocColumns(d)
		assert.Equal(t, []string{"cost_center", "owner", "review_date"}, cols)
		assert.Empty(t, missing)
	})

	t.Run("request intersected, order kept, missing reported", func(t *testing.T) {
		s := NewSelection(false, true, nil, []string{"review_date", "nonexistent", "owner"})
		cols, missing := s.DocColumns(d)
		assert.Equal(t, []string{"review_date", "owner"}, cols)
		assert.Equal(t, []string{"nonexistent"}, missing)
	})

	t.Run("no docs means no columns", func(t *testing.T) {
		cols, missing := NewSelection(true, false, nil, nil).DocColumns(d)
		assert.Empty(t, cols)
		assert.Empty(t, missing)
	})
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, "Source", DetailHeader("source"))
	assert.Equal(t, "Rule Doc: Change Control Number", DocHeader("change_control_number"))
	assert.Equal(t, "Rule Doc: Owner", DocHeader("owner"))
}
