/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"github.com/Seednode/promptbox/internal/deck"
)

// State is a read-only snapshot of everything the UI layer renders.
// Slices are deep copies; observers never alias engine state.
type State struct {
	Phase        Phase        `json:"phase"`
	Players      []Player     `json:"players"`
	Hands        [][]string   `json:"hands"`
	Prompt       string       `json:"prompt,omitempty"`
	Pick         int          `json:"pick,omitempty"`
	PromptActive bool         `json:"promptActive"`
	Submissions  []Submission `json:"submissions"`
	Judge        int          `json:"judge"`
	Active       int          `json:"active"`
	Winners      []string     `json:"winners,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Snapshot publishes the current engine state.
func (e *Engine) Snapshot() State {
	s := State{
		Phase:        e.phase,
		Players:      append([]Player(nil), e.players...),
		Hands:        make([][]string, len(e.hands)),
		PromptActive: e.promptActive,
		Submissions:  make([]Submission, 0, len(e.submissions)),
		Judge:        e.judge,
		Active:       e.active,
	}

	for i, hand := range e.hands {
		s.Hands[i] = append([]string(nil), hand...)
	}

	for _, sub := range e.submissions {
		s.Submissions = append(s.Submissions, Submission{
			Player: sub.Player,
			Cards:  append([]string(nil), sub.Cards...),
		})
	}

	if e.promptActive {
		s.Prompt = e.prompt.Text
		s.Pick = e.prompt.Pick
	}

	for _, i := range e.winners {
		s.Winners = append(s.Winners, e.players[i].Name)
	}

	if e.lastErr != nil {
		s.Error = e.lastErr.Error()
	}

	return s
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Players returns a copy of the current player list.
func (e *Engine) Players() []Player {
	return append([]Player(nil), e.players...)
}

// Hand returns a copy of one player's hand, or nil for an invalid seat.
func (e *Engine) Hand(player int) []string {
	if player < 0 || player >= len(e.hands) {
		return nil
	}
	return append([]string(nil), e.hands[player]...)
}

// Prompt returns the active prompt card, if any.
func (e *Engine) Prompt() (deck.Prompt, bool) {
	return e.prompt, e.promptActive
}

// Submissions returns a copy of this round's submissions, in the order
// they were made. Judge-safe shuffling for display is the caller's job.
func (e *Engine) Submissions() []Submission {
	subs := make([]Submission, 0, len(e.submissions))
	for _, sub := range e.submissions {
		subs = append(subs, Submission{
			Player: sub.Player,
			Cards:  append([]string(nil), sub.Cards...),
		})
	}
	return subs
}

// Judge returns the judge's seat index.
func (e *Engine) Judge() int {
	return e.judge
}

// Active returns the seat whose turn it is to act.
func (e *Engine) Active() int {
	return e.active
}

// Winners returns the seat indices at or above the winning score once
// the game is over.
func (e *Engine) Winners() []int {
	return append([]int(nil), e.winners...)
}

// Err returns the latest recoverable error, cleared by the next
// successful mutator.
func (e *Engine) Err() error {
	return e.lastErr
}
