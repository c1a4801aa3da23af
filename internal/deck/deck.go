/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package deck holds the card catalog, the selectable card packs, and the
// combiner that derives the active deck from the current pack selection.
package deck

import (
	"sort"
)

// Prompt is a fill-in-the-blank card. Pick is how many answer cards a
// player must submit for it, always at least 1.
type Prompt struct {
	Text string `json:"text"`
	Pick int    `json:"pick"`
}

// Catalog is the full set of loaded cards, immutable once loaded. Packs
// reference cards by position in these two slices.
type Catalog struct {
	Answers []string
	Prompts []Prompt
}

// Pack is a named, selectable subset of the catalog.
type Pack struct {
	Name          string
	AnswerIndices []int
	PromptIndices []int
	Official      bool
}

// Deck is the active deck: the union of all cards referenced by the
// currently selected packs, materialized into text.
type Deck struct {
	Answers []string
	Prompts []Prompt
}

// Combiner owns the catalog, the packs, and the pack selection, and
// publishes the derived active deck. Every selection mutator recomputes
// the deck in full rather than patching it.
type Combiner struct {
	catalog  Catalog
	packs    []Pack
	selected map[int]bool
	deck     Deck
}

// NewCombiner returns a combiner with nothing selected and an empty deck.
func NewCombiner(catalog Catalog, packs []Pack) *Combiner {
	c := &Combiner{
		catalog:  catalog,
		packs:    packs,
		selected: make(map[int]bool),
	}
	c.recompute()
	return c
}

// Clone returns a fresh combiner over the same catalog and packs with
// nothing selected. Each game session combines independently.
func (c *Combiner) Clone() *Combiner {
	return NewCombiner(c.catalog, c.packs)
}

// Packs returns the loaded packs in catalog order.
func (c *Combiner) Packs() []Pack {
	return c.packs
}

// Selected reports whether the pack at the given index is selected.
func (c *Combiner) Selected(id int) bool {
	return c.selected[id]
}

// CanContinue reports whether at least one pack is selected. An empty
// selection is a valid combiner state, but callers must refuse to start
// a game from it.
func (c *Combiner) CanContinue() bool {
	return len(c.selected) > 0
}

// Deck returns the current active deck, never stale relative to the last
// selection mutation.
func (c *Combiner) Deck() Deck {
	return c.deck
}

// SetSelection replaces the selection with the given pack indices.
// Unknown indices are ignored.
func (c *Combiner) SetSelection(ids []int) {
	c.selected = make(map[int]bool)
	for _, id := range ids {
		if id >= 0 && id < len(c.packs) {
			c.selected[id] = true
		}
	}
	c.recompute()
}

// Toggle flips the selection state of a single pack.
func (c *Combiner) Toggle(id int) {
	if id < 0 || id >= len(c.packs) {
		return
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
	c.recompute()
}

// SelectAll selects every loaded pack.
func (c *Combiner) SelectAll() {
	for id := range c.packs {
		c.selected[id] = true
	}
	c.recompute()
}

// SelectNone clears the selection, leaving an empty deck.
func (c *Combiner) SelectNone() {
	c.selected = make(map[int]bool)
	c.recompute()
}

func (c *Combiner) recompute() {
	answerSet := make(map[int]bool)
	promptSet := make(map[int]bool)

	for id := range c.selected {
		pack := c.packs[id]
		for _, i := range pack.AnswerIndices {
			answerSet[i] = true
		}
		for _, i := range pack.PromptIndices {
			promptSet[i] = true
		}
	}

	// Sorted ascending so repeated recomputation of the same selection
	// yields identical deck contents. Draw order is randomized later.
	answers := sortedKeys(answerSet)
	prompts := sortedKeys(promptSet)

	deck := Deck{
		Answers: make([]string, 0, len(answers)),
		Prompts: make([]Prompt, 0, len(prompts)),
	}

	// Out-of-range indices come from malformed pack data; drop them.
	for _, i := range answers {
		if i < len(c.catalog.Answers) {
			deck.Answers = append(deck.Answers, c.catalog.Answers[i])
		}
	}
	for _, i := range prompts {
		if i < len(c.catalog.Prompts) {
			deck.Prompts = append(deck.Prompts, c.catalog.Prompts[i])
		}
	}

	c.deck = deck
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		if k >= 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}
