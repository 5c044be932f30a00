// Storybox Storyteller Game
//
// Players gather in a session, agree unanimously to start, then vote on a
// universe and a theme. Once the theme is settled one player is picked at
// random to write the pitch, and receives a few prompt words privately.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Each connection is a player, identified by a random uuid
// - Joins are refused once the start vote passes
// - Duplicate display names rejected, with the reason sent only to the offender
// - Voting the same candidate twice takes the vote back
// - A greeting with a suggested name, optionally from a remote name service
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/storybox/story"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                // "join", "vote"
	Name      string `json:"name,omitempty"`      // join
	Election  string `json:"election,omitempty"`  // vote
	Candidate string `json:"candidate,omitempty"` // vote
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

// Hub owns the connections of one game and delivers the session's messages
// to them. It never calls into the session while holding its own lock.
type Hub struct {
	id      string
	cfg     *Config
	session *story.Session

	mu      sync.RWMutex
	clients map[string]*Client
}

func newHub(cfg *Config, gameID string) *Hub {
	return &Hub{
		id:      gameID,
		cfg:     cfg,
		clients: make(map[string]*Client),
	}
}

// Send queues msg for a player without blocking. A client whose buffer is full
// is dropped, which closes its connection and makes it leave the session.
func (h *Hub) Send(playerID string, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[playerID]
	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		logf(h.cfg, "GAMES: Dropping slow client %s from game %s", playerID, h.id)
		delete(h.clients, playerID)
		close(c.send)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.playerID] = c
	count := len(h.clients)
	h.mu.Unlock()

	logf(h.cfg, "GAMES: Client %s connected to game %s (%d connected)", c.playerID, h.id, count)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.playerID]; ok && cur == c {
		delete(h.clients, c.playerID)
		close(c.send)
	}
	h.mu.Unlock()

	if h.session.Leave(c.playerID) {
		logf(h.cfg, "GAMES: Player %s left game %s", c.playerID, h.id)
	}
}

func (h *Hub) handle(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "join":
		if err := h.session.Join(c.playerID, msg.Name); err != nil {
			logf(h.cfg, "GAMES: Rejected join of %q to game %s: %v", msg.Name, h.id, err)
		}
	case "vote":
		if _, err := h.session.Vote(c.playerID, msg.Election, msg.Candidate); err != nil {
			logf(h.cfg, "GAMES: Rejected vote in game %s: %v", h.id, err)
		}
	default:
		// ignore unknown types
	}
}

// greet sends the home message with a suggested display name.
func (h *Hub) greet(ctx context.Context, c *Client) {
	name := suggestName(ctx, h.cfg)

	h.Send(c.playerID, story.HomeMessage{
		Type:    story.MsgHome,
		Session: h.id,
		Name:    name,
	})
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

func (h *Hub) connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
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
	cfg      *Config
	sessions *story.Registry

	mu   sync.Mutex
	hubs map[string]*Hub

	idleTimeout time.Duration
	done        chan struct{}
	stopOnce    sync.Once
}

func newGameManager(cfg *Config, sessions *story.Registry) *GameManager {
	gm := &GameManager{
		cfg:         cfg,
		sessions:    sessions,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		done:        make(chan struct{}),
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.cfg, gameID)
	s, created := gm.sessions.Open(gameID, hub)
	hub.session = s
	gm.hubs[gameID] = hub

	if created {
		logf(gm.cfg, "GAMES: Opened session %s", gameID)
	}

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

		if _, open := gm.sessions.Lookup(id); !exists && !open {
			return id
		}
	}
}

// reaperLoop periodically removes games that have been idle longer than
// idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// reap ends every game with no activity since cutoff.
func (gm *GameManager) reap(cutoff time.Time) int {
	idle := gm.sessions.Idle(cutoff)

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for _, id := range idle {
		gm.sessions.Evict(id)

		hub, ok := gm.hubs[id]
		if !ok {
			continue
		}
		delete(gm.hubs, id)

		logf(gm.cfg, "GAMES: Reaped idle game %s (%d connected)", id, hub.connected())

		go hub.closeAll()
	}

	return len(idle)
}

func (gm *GameManager) stop() {
	gm.stopOnce.Do(func() {
		close(gm.done)

		gm.mu.Lock()
		defer gm.mu.Unlock()

		for id, hub := range gm.hubs {
			gm.sessions.Evict(id)
			delete(gm.hubs, id)
			hub.closeAll()
		}
	})
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger().WithError(err).Warn("GAMES: Websocket upgrade failed")
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, sendBuffer),
			playerID: uuid.NewString(),
		}

		hub.register(client)

		go client.writePump()
		go hub.greet(r.Context(), client)

		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(h.cfg, "GAMES: Websocket error for %s: %v", c.playerID, err)
			}
			return
		}

		h.handle(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/story/index.html")
		if err != nil {
			http.Error(w, "client unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		cacheFor(w, time.Hour)
		securityHeaders(cfg, w)

		if _, err := w.Write(data); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerStoryGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerStoryGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))
}
