package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the
	// connection as dead
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Boards are public data; origin checks belong to the reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SnapshotFunc renders the current board of a workspace
type SnapshotFunc func(ctx context.Context, workspaceID string) (any, error)

// Observer is told about connects and disconnects
type Observer interface {
	ClientConnected()
	ClientDisconnected()
}

// Message is the JSON envelope sent to clients
type Message struct {
	Event       string `json:"event"`
	WorkspaceID string `json:"workspace_id"`
	Data        any    `json:"data"`
}

// Hub tracks subscribers per workspace
type Hub struct {
	snapshot SnapshotFunc
	interval time.Duration
	observer Observer

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	workspaceID string
	conn        *websocket.Conn
	send        chan []byte
}

// New creates a Hub that renders boards with snapshot and repaints them
// every interval. observer may be nil.
func New(snapshot SnapshotFunc, interval time.Duration, observer Observer) *Hub {
	return &Hub{
		snapshot: snapshot,
		interval: interval,
		observer: observer,
		clients:  make(map[string]map[*client]struct{}),
	}
}

// Run repaints every subscribed workspace each interval. It blocks until
// ctx is cancelled, then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			for _, id := range h.workspaces() {
				h.publish(ctx, id)
			}
		}
	}
}

// Publish rebuilds the board of workspaceID and sends it to its subscribers
func (h *Hub) Publish(workspaceID string) {
	if h.Count(workspaceID) == 0 {
		return
	}
	h.publish(context.Background(), workspaceID)
}

// Serve upgrades the connection and subscribes it to workspaceID. The
// current board is sent right away. Blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, workspaceID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response
		return
	}

	c := &client{
		workspaceID: workspaceID,
		conn:        conn,
		send:        make(chan []byte, sendBufSize),
	}
	if data, err := h.buildMessage(r.Context(), workspaceID); err == nil {
		c.send <- data
	} else {
		log.Printf("ws snapshot error workspace=%s err=%v", workspaceID, err)
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump()
}

// Count returns the number of subscribers of workspaceID
func (h *Hub) Count(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[workspaceID])
}

func (h *Hub) workspaces() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set := h.clients[c.workspaceID]
	if set == nil {
		set = make(map[*client]struct{})
		h.clients[c.workspaceID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ClientConnected()
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	removed := h.remove(c)
	h.mu.Unlock()
	if removed && h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

// remove must be called with mu held
func (h *Hub) remove(c *client) bool {
	set := h.clients[c.workspaceID]
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.workspaceID)
	}
	close(c.send)
	return true
}

func (h *Hub) publish(ctx context.Context, workspaceID string) {
	data, err := h.buildMessage(ctx, workspaceID)
	if err != nil {
		log.Printf("ws snapshot error workspace=%s err=%v", workspaceID, err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients[workspaceID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *Hub) buildMessage(ctx context.Context, workspaceID string) ([]byte, error) {
	board, err := h.snapshot(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: "board", WorkspaceID: workspaceID, Data: board})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var n int
	for _, set := range h.clients {
		for c := range set {
			if h.remove(c) {
				n++
			}
		}
	}
	h.mu.Unlock()
	if h.observer != nil {
		for i := 0; i < n; i++ {
			h.observer.ClientDisconnected()
		}
	}
}

// writePump forwards queued messages and sends pings. One per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. Blocks until
// the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
