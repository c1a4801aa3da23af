/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/promptbox/internal/deck"
	"github.com/Seednode/promptbox/internal/game"
)

func testConfig() *Config {
	return &Config{
		handSize:     7,
		winningScore: 5,
		winnerDelay:  time.Millisecond,
	}
}

func testHub(t *testing.T) (*Config, *Hub) {
	t.Helper()

	cfg := testConfig()
	source, err := deck.Load(bytes.NewReader(defaultDeck))
	require.NoError(t, err)

	return cfg, newHub(cfg, "testgame", source)
}

// playRound drives every non-judge player's submission through the
// command handler, as the client would.
func playRound(t *testing.T, cfg *Config, h *Hub) {
	t.Helper()

	for h.engine.Phase() == game.PhaseRound {
		snapshot := h.engine.Snapshot()
		indices := make([]int, snapshot.Pick)
		for i := range indices {
			indices[i] = i
		}
		h.handleCommand(cfg, nil, ClientMessage{
			Type:   "submit",
			Player: snapshot.Active,
			Cards:  indices,
		})
	}
}

func TestDefaultDeckLoads(t *testing.T) {
	source, err := deck.Load(bytes.NewReader(defaultDeck))
	require.NoError(t, err)

	packs := source.Packs()
	require.Len(t, packs, 3)
	assert.True(t, packs[0].Official)
	assert.False(t, packs[2].Official)
}

func TestHubPackSelection(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	assert.True(t, h.combiner.CanContinue())

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_none"})
	assert.False(t, h.combiner.CanContinue())

	pack := 1
	h.handleCommand(cfg, nil, ClientMessage{Type: "toggle_pack", Pack: &pack})
	assert.True(t, h.combiner.Selected(1))
	assert.False(t, h.combiner.Selected(0))
}

func TestHubRefusesStartWithoutPacks(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol"},
	})

	assert.Equal(t, game.PhaseWaiting, h.engine.Phase())
}

func TestHubStartsGame(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", " ", "Carol", ""},
	})

	require.Equal(t, game.PhaseRound, h.engine.Phase())
	assert.Len(t, h.engine.Players(), 3, "blank names are dropped")
	for i := 0; i < 3; i++ {
		assert.Len(t, h.engine.Hand(i), 7)
	}
}

func TestHubShuffleIsPermutation(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol", "Dave"},
	})
	playRound(t, cfg, h)

	require.Equal(t, game.PhaseJudging, h.engine.Phase())
	require.Len(t, h.displayOrder, 3)

	seen := make(map[int]bool)
	for _, trueIndex := range h.displayOrder {
		assert.GreaterOrEqual(t, trueIndex, 0)
		assert.Less(t, trueIndex, 3)
		assert.False(t, seen[trueIndex], "display order repeats submission %d", trueIndex)
		seen[trueIndex] = true
	}
}

func TestHubMapsDisplaySlotToTrueSubmission(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol", "Dave"},
	})
	playRound(t, cfg, h)

	slot := 1
	expected := h.engine.Submissions()[h.displayOrder[slot]].Player

	h.handleCommand(cfg, nil, ClientMessage{Type: "pick_winner", Submission: &slot})

	assert.Equal(t, 1, h.engine.Players()[expected].Score,
		"the display slot must score the submission it showed")
	assert.Equal(t, game.PhaseShowWinner, h.engine.Phase())
	assert.Nil(t, h.displayOrder, "display mapping is round-scoped")
}

func TestHubRejectsStaleDisplaySlot(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol"},
	})
	playRound(t, cfg, h)

	slot := 5
	h.handleCommand(cfg, nil, ClientMessage{Type: "pick_winner", Submission: &slot})

	assert.Equal(t, game.PhaseJudging, h.engine.Phase())
	for _, p := range h.engine.Players() {
		assert.Zero(t, p.Score)
	}
}

func TestHubStateMessageHidesAuthorsInDisplay(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol"},
	})
	playRound(t, cfg, h)

	msg := h.stateMessage()
	require.Len(t, msg.Display, 2)
	for _, sub := range msg.Display {
		assert.NotEmpty(t, sub.Cards)
	}
}

func TestHubNewGameResets(t *testing.T) {
	cfg, h := testHub(t)

	h.handleCommand(cfg, nil, ClientMessage{Type: "select_all"})
	h.handleCommand(cfg, nil, ClientMessage{
		Type:  "start_game",
		Names: []string{"Alice", "Bob", "Carol"},
	})
	require.Equal(t, game.PhaseRound, h.engine.Phase())

	h.handleCommand(cfg, nil, ClientMessage{Type: "new_game"})

	assert.Equal(t, game.PhaseWaiting, h.engine.Phase())
	assert.Empty(t, h.engine.Players())
	assert.False(t, h.combiner.CanContinue())
}
