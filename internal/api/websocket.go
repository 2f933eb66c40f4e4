package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/calvinwijaya/uno-game-be/internal/game"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the HTTP routes
	},
}

// Message represents a WebSocket message
type Message struct {
	Type   string `json:"type"`
	GameID string `json:"gameId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// handPayload is sent for handChanged. Only the human's cards are included.
type handPayload struct {
	Player game.Player     `json:"player"`
	Count  int             `json:"count"`
	Hand   []game.HandCard `json:"hand,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	hub    *Hub
}

// Hub maintains the set of active clients and routes game events to the
// clients watching that game
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	games      map[string]map[*Client]bool
	done       chan struct{}
	log        *logrus.Entry
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		games:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx is done, then disconnects everyone
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, exists := h.games[client.gameID]; !exists {
				h.games[client.gameID] = make(map[*Client]bool)
			}
			h.games[client.gameID][client] = true
			h.mu.Unlock()
			h.log.WithField("game_id", client.gameID).Debug("websocket client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

// remove drops a client; the caller holds h.mu
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if watchers := h.games[client.gameID]; watchers != nil {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.games, client.gameID)
		}
	}
}

// ClientCount returns the number of clients watching gameID
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// BroadcastToGame sends a message to all clients watching a game. It never
// blocks: a client with a full buffer misses the message.
func (h *Hub) BroadcastToGame(gameID string, message Message) {
	message.GameID = gameID
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("marshaling websocket message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.games[gameID] {
		select {
		case client.send <- data:
		default:
			h.log.WithField("game_id", gameID).Warn("websocket client buffer full, dropping message")
		}
	}
}

// GameListener returns an engine listener that streams gameID's events to
// its watchers. The computer's hand is reduced to a count.
func (h *Hub) GameListener(gameID string) game.Listener {
	return game.ListenerFuncs{
		StateChanged: func(d game.DiscardState) {
			h.BroadcastToGame(gameID, Message{Type: game.EventStateChanged.String(), Data: d})
		},
		HandChanged: func(p game.Player, hand []game.HandCard) {
			payload := handPayload{Player: p, Count: len(hand)}
			if p == game.Human {
				payload.Hand = hand
			}
			h.BroadcastToGame(gameID, Message{Type: game.EventHandChanged.String(), Data: payload})
		},
		TurnChanged: func(p game.Player) {
			h.BroadcastToGame(gameID, Message{Type: game.EventTurnChanged.String(), Data: map[string]game.Player{"player": p}})
		},
		GameOver: func(o game.Outcome) {
			h.BroadcastToGame(gameID, Message{Type: game.EventGameOver.String(), Data: o})
		},
	}
}

// WebSocketHandler upgrades the request and subscribes the connection to
// the game named by the gameId query parameter
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		errorResponse(w, http.StatusBadRequest, "gameId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: gameID,
		hub:    h,
	}

	welcome, _ := json.Marshal(Message{
		Type:   "welcome",
		GameID: gameID,
		Data:   map[string]string{"message": "Connected to UNO game server"},
	})
	client.send <- welcome

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// readPump keeps the read side alive for pongs and close frames. Moves are
// made over HTTP, so incoming messages are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read error")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
