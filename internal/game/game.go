/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game implements the round engine for the fill-in-the-prompt
// card game: dealing, unique card draws, turn-ordered submissions,
// judging, scoring, and judge rotation.
package game

import (
	"errors"
)

const (
	// HandSize is the number of answer cards each player holds.
	HandSize = 7

	// WinningScore ends the game once any player reaches it.
	WinningScore = 5

	// CustomCardLimit caps how many player-authored cards a single
	// player may submit over one game.
	CustomCardLimit = 20

	// maxDrawAttempts bounds the random-index retry loop when drawing.
	// Near-exhausted catalogs may report empty slightly early; callers
	// treat that the same as genuine exhaustion.
	maxDrawAttempts = 100
)

// Phase is the engine's current position in the round state machine.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseDealing    Phase = "dealing"
	PhaseRound      Phase = "round"
	PhaseJudging    Phase = "judging"
	PhaseShowWinner Phase = "show_winner"
	PhaseGameOver   Phase = "game_over"
)

// Player is one seat at the game. Players are created by Setup and
// persist until the next Setup or Reset.
type Player struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CustomCardUses int    `json:"customCardUses"`
}

// Submission is one non-judge player's answer for the current round.
// Cards are in the order the player picked them, not hand order.
type Submission struct {
	Player int      `json:"player"`
	Cards  []string `json:"cards"`
}

// Recoverable rule violations. Each one leaves engine state unchanged
// apart from the latest-error slot.
var (
	ErrPlayerCount       = errors.New("a game needs between 3 and 8 players")
	ErrNoCardsSelected   = errors.New("no cards selected")
	ErrWrongCardCount    = errors.New("selection does not match the prompt's pick count")
	ErrInvalidSelection  = errors.New("selected card is not in hand")
	ErrEmptyCustomCard   = errors.New("custom card text is empty")
	ErrCustomCardLimit   = errors.New("custom card limit reached")
	ErrNotYourTurn       = errors.New("not this player's turn")
	ErrWrongPhase        = errors.New("action not allowed in this phase")
	ErrInvalidPlayer     = errors.New("invalid player index")
	ErrInvalidSubmission = errors.New("invalid submission index")
	ErrNoPrompts         = errors.New("no unused prompt cards remain")
)
