// Partybox-style fill-in-the-prompt card game
//
// A single shared screen is passed around the room. The screen picks the
// card packs to play with, enters 3-8 player names, and then the device
// makes the rounds: each non-judge player fills the prompt from their
// hand (or writes a custom card), and the judge picks a winner from the
// anonymized submissions. First player to the winning score takes the
// game; ties at the threshold are shared wins.
//
// Features:
// - WebSockets per game ID: /prompts/:gameid and /prompts/:gameid/ws
// - Card packs toggled per session; the active deck is recombined on
//   every selection change
// - Unique draws: no answer or prompt card appears twice in one game
// - Multi-card prompts (pick 2+) submitted in the player's chosen order
// - Player-authored custom cards, capped per player per game
// - Submissions shuffled for the judge here, outside the engine, so the
//   engine's submission order stays stable and index-based
// - Winner display auto-advances to the next round after a short delay
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"crypto/rand"
	_ "embed"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/promptbox/internal/deck"
	"github.com/Seednode/promptbox/internal/game"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string   `json:"type"`                 // "set_packs", "toggle_pack", "select_all", "select_none", "start_game", "submit", "submit_custom", "pick_winner", "next_round", "play_again", "new_game"
	Packs      []int    `json:"packs,omitempty"`      // set_packs
	Pack       *int     `json:"pack,omitempty"`       // toggle_pack
	Names      []string `json:"names,omitempty"`      // start_game / play_again
	Player     int      `json:"player"`               // submit / submit_custom
	Cards      []int    `json:"cards,omitempty"`      // submit: hand positions in selection order
	Texts      []string `json:"texts,omitempty"`      // submit_custom
	Submission *int     `json:"submission,omitempty"` // pick_winner: display slot
}

// PackInfo describes one selectable pack to clients.
type PackInfo struct {
	Name     string `json:"name"`
	Official bool   `json:"official"`
	Selected bool   `json:"selected"`
	Answers  int    `json:"answers"`
	Prompts  int    `json:"prompts"`
}

// PackListMessage is sent whenever the pack selection changes.
type PackListMessage struct {
	Type        string     `json:"type"` // "pack_list"
	Packs       []PackInfo `json:"packs"`
	CanContinue bool       `json:"canContinue"`
}

// DisplaySubmission is one judging choice with the author hidden.
type DisplaySubmission struct {
	Cards []string `json:"cards"`
}

// GameStateMessage broadcasts the full engine snapshot plus, during
// judging, the shuffled anonymous view the judge picks from.
type GameStateMessage struct {
	Type    string              `json:"type"` // "game_state"
	State   game.State          `json:"state"`
	Display []DisplaySubmission `json:"display,omitempty"`
}

// SimpleMessage is for generic notifications ("game_error", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id       string
	clients  map[*Client]bool
	combiner *deck.Combiner
	engine   *game.Engine

	register chan *Client
	unreg    chan *Client
	commands chan command
	advance  chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	// displayOrder maps judging display slots back to true submission
	// indices. Reshuffled once per judging phase.
	displayOrder []int
}

func newHub(cfg *Config, gameID string, source *deck.Combiner) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		combiner:   source.Clone(),
		engine:     game.New(nil, engineLogger(cfg, gameID), engineOptions(cfg)...),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		advance:    make(chan struct{}, 1),
		createdAt:  now,
		lastActive: now,
	}
}

func engineLogger(cfg *Config, gameID string) *charmlog.Logger {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Prefix: "game/" + gameID,
	})
	if cfg.verbose {
		logger.SetLevel(charmlog.DebugLevel)
	} else {
		logger.SetLevel(charmlog.WarnLevel)
	}
	return logger
}

func engineOptions(cfg *Config) []game.Option {
	return []game.Option{
		game.WithHandSize(cfg.handSize),
		game.WithWinningScore(cfg.winningScore),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			// Catch the new screen up immediately.
			c.send <- h.packListMessage()
			c.send <- h.stateMessage()
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case cmd := <-h.commands:
			h.handleCommand(cfg, cmd.client, cmd.msg)

		case <-h.advance:
			h.mu.Lock()
			if h.engine.Phase() == game.PhaseShowWinner {
				_ = h.engine.StartRound()
				h.broadcastStateLocked()
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) handleCommand(cfg *Config, c *Client, msg ClientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch msg.Type {
	case "set_packs":
		h.combiner.SetSelection(msg.Packs)
		h.broadcastPacksLocked()

	case "toggle_pack":
		if msg.Pack == nil {
			return
		}
		h.combiner.Toggle(*msg.Pack)
		h.broadcastPacksLocked()

	case "select_all":
		h.combiner.SelectAll()
		h.broadcastPacksLocked()

	case "select_none":
		h.combiner.SelectNone()
		h.broadcastPacksLocked()

	case "start_game", "play_again":
		if !h.combiner.CanContinue() {
			h.sendError(c, "Select at least one card pack first.")
			return
		}
		names := trimNames(msg.Names)
		if err := h.engine.Setup(h.combiner.Deck(), names); err != nil {
			logf(cfg, "GAMES: Setup refused in %s: %v", h.id, err)
			h.broadcastStateLocked()
			return
		}
		logf(cfg, "GAMES: Started %s with %d players", h.id, len(names))
		h.broadcastStateLocked()

	case "submit":
		if err := h.engine.SubmitCard(msg.Player, msg.Cards); err != nil {
			logf(cfg, "GAMES: Submission refused in %s: %v", h.id, err)
		}
		h.afterMutateLocked(cfg)

	case "submit_custom":
		if err := h.engine.SubmitCustomCard(msg.Player, msg.Texts); err != nil {
			logf(cfg, "GAMES: Custom card refused in %s: %v", h.id, err)
		}
		h.afterMutateLocked(cfg)

	case "pick_winner":
		if msg.Submission == nil {
			return
		}
		// Map the judge's display slot back to the true submission index
		// before the engine sees it.
		slot := *msg.Submission
		if slot < 0 || slot >= len(h.displayOrder) {
			h.sendError(c, "That submission is no longer available.")
			return
		}
		if err := h.engine.PickWinner(h.displayOrder[slot]); err != nil {
			logf(cfg, "GAMES: Winner pick refused in %s: %v", h.id, err)
		}
		h.afterMutateLocked(cfg)

	case "next_round":
		if h.engine.Phase() == game.PhaseShowWinner || h.engine.Phase() == game.PhaseWaiting {
			_ = h.engine.StartRound()
		}
		h.broadcastStateLocked()

	case "new_game":
		h.engine.Reset()
		h.combiner.SelectNone()
		h.displayOrder = nil
		h.broadcastPacksLocked()
		h.broadcastStateLocked()

	default:
		// ignore unknown types
	}
}

// afterMutateLocked reshuffles the judging display when a mutation just
// closed the round, schedules the winner display timer, and broadcasts.
func (h *Hub) afterMutateLocked(cfg *Config) {
	switch h.engine.Phase() {
	case game.PhaseJudging:
		if h.displayOrder == nil {
			h.shuffleDisplayLocked()
		}
	case game.PhaseShowWinner:
		h.displayOrder = nil
		// The engine never self-schedules; this hub owns the
		// show-winner delay.
		time.AfterFunc(cfg.winnerDelay, func() {
			select {
			case h.advance <- struct{}{}:
			default:
			}
		})
	default:
		h.displayOrder = nil
	}

	h.broadcastStateLocked()
}

// shuffleDisplayLocked builds a fresh random display order over the
// current submissions so the judge cannot infer authorship from order.
func (h *Hub) shuffleDisplayLocked() {
	count := len(h.engine.Submissions())
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}

	// Fisher-Yates shuffle using crypto/rand
	for i := len(order) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		order[i], order[j] = order[j], order[i]
	}

	h.displayOrder = order
}

func (h *Hub) packListMessage() PackListMessage {
	packs := h.combiner.Packs()
	infos := make([]PackInfo, 0, len(packs))
	for i, p := range packs {
		infos = append(infos, PackInfo{
			Name:     p.Name,
			Official: p.Official,
			Selected: h.combiner.Selected(i),
			Answers:  len(p.AnswerIndices),
			Prompts:  len(p.PromptIndices),
		})
	}

	return PackListMessage{
		Type:        "pack_list",
		Packs:       infos,
		CanContinue: h.combiner.CanContinue(),
	}
}

func (h *Hub) stateMessage() GameStateMessage {
	msg := GameStateMessage{
		Type:  "game_state",
		State: h.engine.Snapshot(),
	}

	if h.engine.Phase() == game.PhaseJudging && h.displayOrder != nil {
		subs := h.engine.Submissions()
		for _, trueIndex := range h.displayOrder {
			if trueIndex < 0 || trueIndex >= len(subs) {
				continue
			}
			msg.Display = append(msg.Display, DisplaySubmission{
				Cards: subs[trueIndex].Cards,
			})
		}
	}

	return msg
}

func (h *Hub) broadcastPacksLocked() {
	h.broadcastLocked(h.packListMessage())
}

func (h *Hub) broadcastStateLocked() {
	h.broadcastLocked(h.stateMessage())
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) sendError(c *Client, text string) {
	if c == nil {
		return
	}
	select {
	case c.send <- SimpleMessage{
		Type:    "game_error",
		Message: text,
	}:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func trimNames(names []string) []string {
	trimmed := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		trimmed = append(trimmed, name)
	}
	return trimmed
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	source      *deck.Combiner
	idleTimeout time.Duration
}

func newGameManager(source *deck.Combiner, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		source:      source,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID, gm.source)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.commands <- command{
			client: c,
			msg:    msg,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// ---- Static file paths ----

//go:embed prompts/index.html
var indexHTML []byte

//go:embed prompts/app.css
var promptboxCSS []byte

//go:embed prompts/app.js
var promptboxJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(promptboxCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(promptboxJS)
	}
}

// registerPromptsGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerPromptsGame(cfg *Config, path string, mux *httprouter.Router, source *deck.Combiner) {
	gm := newGameManager(source, cfg.sessionTimeout)

	// Root path → redirect to new random game
	mux.GET(path, redirectNewGame(cfg, path, gm))

	// Per-game client view (HTML)
	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	// Shared assets (no gameid in route)
	mux.GET(cfg.prefix+"/assets/prompts/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/prompts/app.js", getJsHandler(cfg))

	// Per-game websocket
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	// Per-game QR code
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
