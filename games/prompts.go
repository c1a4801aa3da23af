// Package games holds design notes for the games promptbox ships.
package games

// One device is passed around the room; everyone plays on the same screen
// Players pick the card packs to use, then enter 3-8 names
// Each player is dealt a hand of seven answer cards
// One prompt card is shown per round; the judge sits the round out
// Non-judge players take turns filling the prompt from their hand, in seat order
// Prompts can ask for more than one card; the player's pick order is kept
// A player may instead write a custom answer, up to twenty per game
// Once everyone has submitted, the answers are shuffled and shown to the judge
// The judge picks a favorite without knowing who wrote what
// The writer scores a point, the judge seat rotates, and a new round starts
// First to five points wins; ties at five are shared wins

// Display formats:
// Pack picker with per-pack card counts, then a hand of tappable cards
// Judging view shows anonymized submissions as large tiles

// Implementation details:
// - One websocket hub per game ID; every connected tab mirrors the screen
// - No per-player identity; turn order is enforced by the engine seat index
// - Shuffling for the judge happens in the hub, never in the engine
