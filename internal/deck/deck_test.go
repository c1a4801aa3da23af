/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{
		Answers: []string{"a0", "a1", "a2", "a3", "a4", "a5"},
		Prompts: []Prompt{
			{Text: "p0 ____", Pick: 1},
			{Text: "p1 ____ and ____", Pick: 2},
			{Text: "p2 ____", Pick: 1},
		},
	}
}

func testPacks() []Pack {
	return []Pack{
		{
			Name:          "Base",
			AnswerIndices: []int{0, 1, 2},
			PromptIndices: []int{0, 1},
			Official:      true,
		},
		{
			Name:          "Expansion",
			AnswerIndices: []int{2, 3, 4},
			PromptIndices: []int{1, 2},
			Official:      true,
		},
		{
			Name:          "Homebrew",
			AnswerIndices: []int{5, 99},
			PromptIndices: []int{2, 42},
		},
	}
}

func TestEmptySelectionYieldsEmptyDeck(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())

	d := c.Deck()
	assert.Empty(t, d.Answers)
	assert.Empty(t, d.Prompts)
	assert.False(t, c.CanContinue())
}

func TestSelectAllUnionsWithoutDuplicates(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SelectAll()

	d := c.Deck()
	require.Equal(t, []string{"a0", "a1", "a2", "a3", "a4", "a5"}, d.Answers)
	require.Len(t, d.Prompts, 3)
	assert.Equal(t, "p0 ____", d.Prompts[0].Text)
	assert.Equal(t, 2, d.Prompts[1].Pick)
	assert.True(t, c.CanContinue())
}

func TestOverlappingPacksCollapseSharedCards(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SetSelection([]int{0, 1})

	// a2 and p1 appear in both packs but only once in the deck.
	d := c.Deck()
	assert.Equal(t, []string{"a0", "a1", "a2", "a3", "a4"}, d.Answers)
	assert.Len(t, d.Prompts, 3)
}

func TestOutOfRangeIndicesAreDropped(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SetSelection([]int{2})

	d := c.Deck()
	assert.Equal(t, []string{"a5"}, d.Answers)
	require.Len(t, d.Prompts, 1)
	assert.Equal(t, "p2 ____", d.Prompts[0].Text)
}

func TestToggleTwiceIsIdentity(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SetSelection([]int{0})
	before := c.Deck()

	c.Toggle(1)
	assert.True(t, c.Selected(1))

	c.Toggle(1)
	assert.False(t, c.Selected(1))
	assert.Equal(t, before, c.Deck())
}

func TestSelectNoneClearsDeck(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SelectAll()
	c.SelectNone()

	assert.Empty(t, c.Deck().Answers)
	assert.False(t, c.CanContinue())
}

func TestUnknownPackIdsAreIgnored(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())
	c.SetSelection([]int{-1, 7})
	assert.False(t, c.CanContinue())

	c.Toggle(7)
	assert.False(t, c.CanContinue())
}

func TestRecomputeIsDeterministic(t *testing.T) {
	c := NewCombiner(testCatalog(), testPacks())

	c.SetSelection([]int{1, 0})
	first := c.Deck()
	c.SetSelection([]int{0, 1})
	second := c.Deck()

	assert.Equal(t, first, second)
}
