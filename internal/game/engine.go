/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Seednode/promptbox/internal/deck"
)

// Engine owns all per-game mutable state. It is not safe for concurrent
// use; the caller sequences every mutator.
type Engine struct {
	rng    *rand.Rand
	logger *log.Logger

	handSize     int
	winningScore int

	deck    deck.Deck
	players []Player
	hands   [][]string

	usedAnswers map[int]bool
	usedPrompts map[int]bool

	phase        Phase
	prompt       deck.Prompt
	promptActive bool
	submissions  []Submission
	judge        int
	active       int
	winners      []int
	lastErr      error
}

// Option adjusts engine tunables at construction.
type Option func(*Engine)

// WithHandSize overrides the default hand size of 7.
func WithHandSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.handSize = n
		}
	}
}

// WithWinningScore overrides the default winning score of 5.
func WithWinningScore(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.winningScore = n
		}
	}
}

// New returns an idle engine in the waiting phase. A nil rng falls back
// to a time-seeded source; a nil logger falls back to the default.
func New(rng *rand.Rand, logger *log.Logger, opts ...Option) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		rng:          rng,
		logger:       logger,
		handSize:     HandSize,
		winningScore: WinningScore,
		phase:        PhaseWaiting,
		usedAnswers:  make(map[int]bool),
		usedPrompts:  make(map[int]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Setup starts a fresh game on the given deck: one zero-score player per
// name, empty tracking, judge at seat 0, hands dealt, first round
// started. Calling it again after game over is "play again".
func (e *Engine) Setup(d deck.Deck, names []string) error {
	if len(names) < 3 || len(names) > 8 {
		return e.fail(ErrPlayerCount)
	}

	e.deck = d
	e.players = make([]Player, len(names))
	e.hands = make([][]string, len(names))
	for i, name := range names {
		e.players[i] = Player{Name: name}
		e.hands[i] = make([]string, 0, e.handSize)
	}

	e.usedAnswers = make(map[int]bool)
	e.usedPrompts = make(map[int]bool)
	e.submissions = nil
	e.winners = nil
	e.judge = 0
	e.active = 0
	e.promptActive = false
	e.lastErr = nil

	e.phase = PhaseDealing
	e.dealHands()

	e.logger.Info("game set up",
		"players", len(names),
		"answers", len(d.Answers),
		"prompts", len(d.Prompts))

	return e.StartRound()
}

// Reset discards the deck and players entirely, returning the engine to
// the waiting phase.
func (e *Engine) Reset() {
	e.deck = deck.Deck{}
	e.players = nil
	e.hands = nil
	e.usedAnswers = make(map[int]bool)
	e.usedPrompts = make(map[int]bool)
	e.submissions = nil
	e.winners = nil
	e.judge = 0
	e.active = 0
	e.prompt = deck.Prompt{}
	e.promptActive = false
	e.lastErr = nil
	e.phase = PhaseWaiting
}

// StartRound begins a new round: clears submissions, draws a prompt,
// hands the turn to the seat after the judge, and tops up every hand.
// A failed prompt draw drops the engine back to waiting.
func (e *Engine) StartRound() error {
	e.submissions = nil

	idx, ok := e.drawPromptIndex()
	if !ok {
		e.phase = PhaseWaiting
		e.promptActive = false
		e.lastErr = ErrNoPrompts
		e.logger.Warn("prompt deck exhausted, waiting")
		return ErrNoPrompts
	}

	e.prompt = e.deck.Prompts[idx]
	e.promptActive = true
	e.phase = PhaseRound
	e.active = (e.judge + 1) % len(e.players)

	// Best-effort refill; a drained answer deck just means short hands.
	e.dealHands()

	e.lastErr = nil
	e.logger.Debug("round started",
		"prompt", e.prompt.Text,
		"pick", e.prompt.Pick,
		"judge", e.judge)

	return nil
}

// SubmitCard plays cards from the active player's hand. Indices are hand
// positions in the order the player picked them; that order is preserved
// in the submission. The hand is refilled one draw per card played.
func (e *Engine) SubmitCard(player int, handIndices []int) error {
	if err := e.checkTurn(player); err != nil {
		return err
	}
	if len(handIndices) == 0 {
		return e.fail(ErrNoCardsSelected)
	}
	if len(handIndices) != e.prompt.Pick {
		return e.fail(ErrWrongCardCount)
	}

	hand := e.hands[player]
	seen := make(map[int]bool, len(handIndices))
	for _, idx := range handIndices {
		if idx < 0 || idx >= len(hand) || seen[idx] {
			return e.fail(ErrInvalidSelection)
		}
		seen[idx] = true
	}

	cards := make([]string, len(handIndices))
	for i, idx := range handIndices {
		cards[i] = hand[idx]
	}

	// Remove from highest position to lowest so earlier removals don't
	// shift the positions still pending.
	removal := append([]int(nil), handIndices...)
	sort.Sort(sort.Reverse(sort.IntSlice(removal)))
	for _, idx := range removal {
		hand = append(hand[:idx], hand[idx+1:]...)
	}
	e.hands[player] = hand

	e.submissions = append(e.submissions, Submission{
		Player: player,
		Cards:  cards,
	})

	for range cards {
		text, ok := e.drawAnswer()
		if !ok {
			break
		}
		e.hands[player] = append(e.hands[player], text)
	}

	e.lastErr = nil
	e.logger.Debug("cards submitted", "player", e.players[player].Name, "count", len(cards))

	e.advanceToNextPlayerOrJudge()
	return nil
}

// SubmitCustomCard plays freeform texts instead of hand cards, counted
// against the player's custom card allowance. The hand is untouched.
func (e *Engine) SubmitCustomCard(player int, texts []string) error {
	if err := e.checkTurn(player); err != nil {
		return err
	}
	if len(texts) == 0 {
		return e.fail(ErrNoCardsSelected)
	}
	if len(texts) != e.prompt.Pick {
		return e.fail(ErrWrongCardCount)
	}
	for _, text := range texts {
		if text == "" {
			return e.fail(ErrEmptyCustomCard)
		}
	}
	if e.players[player].CustomCardUses+len(texts) > CustomCardLimit {
		return e.fail(ErrCustomCardLimit)
	}

	e.players[player].CustomCardUses += len(texts)
	e.submissions = append(e.submissions, Submission{
		Player: player,
		Cards:  append([]string(nil), texts...),
	})

	e.lastErr = nil
	e.logger.Debug("custom cards submitted",
		"player", e.players[player].Name,
		"uses", e.players[player].CustomCardUses)

	e.advanceToNextPlayerOrJudge()
	return nil
}

// PickWinner scores the chosen submission's player. Reaching the winning
// score ends the game, keeping every player at or above the threshold as
// a winner; otherwise the judge seat rotates and the round result is
// shown until the caller starts the next round.
func (e *Engine) PickWinner(submissionIndex int) error {
	if e.phase != PhaseJudging {
		return e.fail(ErrWrongPhase)
	}
	if submissionIndex < 0 || submissionIndex >= len(e.submissions) {
		return e.fail(ErrInvalidSubmission)
	}

	winner := e.submissions[submissionIndex].Player
	if winner < 0 || winner >= len(e.players) {
		return e.fail(ErrInvalidPlayer)
	}

	e.players[winner].Score++
	e.lastErr = nil

	e.logger.Info("round won",
		"player", e.players[winner].Name,
		"score", e.players[winner].Score)

	if e.maxScore() >= e.winningScore {
		e.winners = nil
		for i, p := range e.players {
			if p.Score >= e.winningScore {
				e.winners = append(e.winners, i)
			}
		}
		e.phase = PhaseGameOver
		e.promptActive = false
		return nil
	}

	e.phase = PhaseShowWinner
	e.judge = (e.judge + 1) % len(e.players)
	return nil
}

// advanceToNextPlayerOrJudge moves the turn to the next non-judge seat,
// or into judging once every non-judge player has submitted.
func (e *Engine) advanceToNextPlayerOrJudge() {
	n := len(e.players)

	if len(e.submissions) >= n-1 {
		e.phase = PhaseJudging
		e.active = e.judge
		return
	}

	next := (e.active + 1) % n
	if next == e.judge {
		next = (next + 1) % n
	}
	e.active = next
}

func (e *Engine) checkTurn(player int) error {
	if e.phase != PhaseRound {
		return e.fail(ErrWrongPhase)
	}
	if player < 0 || player >= len(e.players) {
		return e.fail(ErrInvalidPlayer)
	}
	if player != e.active {
		return e.fail(ErrNotYourTurn)
	}
	return nil
}

func (e *Engine) dealHands() {
	for i := range e.hands {
		for len(e.hands[i]) < e.handSize {
			text, ok := e.drawAnswer()
			if !ok {
				return
			}
			e.hands[i] = append(e.hands[i], text)
		}
	}
}

func (e *Engine) drawAnswer() (string, bool) {
	idx, ok := drawIndex(e.rng, len(e.deck.Answers), e.usedAnswers)
	if !ok {
		return "", false
	}
	return e.deck.Answers[idx], true
}

func (e *Engine) drawPromptIndex() (int, bool) {
	return drawIndex(e.rng, len(e.deck.Prompts), e.usedPrompts)
}

// drawIndex picks a uniformly random unused index and marks it used,
// retrying on collisions up to maxDrawAttempts before reporting the
// catalog empty.
func drawIndex(rng *rand.Rand, total int, used map[int]bool) (int, bool) {
	if total == 0 || len(used) >= total {
		return 0, false
	}

	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		idx := rng.Intn(total)
		if !used[idx] {
			used[idx] = true
			return idx, true
		}
	}

	return 0, false
}

func (e *Engine) maxScore() int {
	max := 0
	for _, p := range e.players {
		if p.Score > max {
			max = p.Score
		}
	}
	return max
}

func (e *Engine) fail(err error) error {
	e.lastErr = err
	return err
}
