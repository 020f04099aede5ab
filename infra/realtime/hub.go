// Package realtime implements the websocket hub that carries socket
// notifications to connected users.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adityakp21/chargegrid/core/registry"
	"github.com/adityakp21/chargegrid/infra/logger"
)

// BroadcastRoom is the room every connection joins on connect.
const BroadcastRoom = "broadcast"

// Config holds the websocket endpoint parameters.
type Config struct {
	Addr           string `json:"addr"`
	Path           string `json:"path"`
	SendBuffer     int    `json:"send_buffer"`
	WriteTimeoutMS int    `json:"write_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8081"
	}
	if c.Path == "" {
		c.Path = "/ws"
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	if c.WriteTimeoutMS <= 0 {
		c.WriteTimeoutMS = 5000
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn is the subset of *websocket.Conn the hub uses.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// frame is the wire format for every message pushed to a client.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	id     string
	userID string
	conn   wsConn
	send   chan []byte

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub tracks connected clients by room and fans messages out to them.
// A slow client that fills its send buffer is dropped rather than
// stalling delivery to the rest of the room.
type Hub struct {
	cfg      Config
	reg      *registry.ConnectionRegistry
	log      logger.Logger
	writeTTL time.Duration

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates a hub that records connections in reg.
func NewHub(cfg Config, reg *registry.ConnectionRegistry, log logger.Logger) (*Hub, error) {
	cfg.SetDefaults()
	if reg == nil {
		return nil, fmt.Errorf("realtime: registry is required")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Hub{
		cfg:      cfg,
		reg:      reg,
		log:      log,
		writeTTL: time.Duration(cfg.WriteTimeoutMS) * time.Millisecond,
		rooms:    make(map[string]map[*client]struct{}),
	}, nil
}

// ServeHTTP upgrades the request and runs the connection until the client
// disconnects. The user is identified by the userId query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("upgrade failed for %s: %v", userID, err)
		return
	}
	h.run(userID, conn)
}

// run registers the connection and blocks until it closes. Split from
// ServeHTTP so tests can drive the hub with a fake connection.
func (h *Hub) run(userID string, conn wsConn) {
	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
	}
	h.join(userID, c)
	h.join(BroadcastRoom, c)
	h.reg.Add(userID, c.id)
	h.log.Infof("user %s connected (%s)", userID, c.id)

	go h.writePump(c)
	h.readPump(c)

	h.leave(userID, c)
	h.leave(BroadcastRoom, c)
	h.reg.Remove(userID, c.id)
	c.close()
	h.log.Infof("user %s disconnected (%s)", userID, c.id)
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTTL)); err != nil {
			break
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warnf("write to %s failed: %v", c.userID, err)
			break
		}
	}
	_ = c.conn.Close()
}

func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// EmitToRoom sends the payload to every connection in the room. An unknown
// room is not an error; a message to nobody is simply dropped.
func (h *Hub) EmitToRoom(room, msg string, payload any) error {
	data, err := json.Marshal(frame{Event: msg, Data: payload})
	if err != nil {
		return fmt.Errorf("realtime: encode %s: %w", msg, err)
	}

	// Sends happen under the read lock: leave() holds the write lock, so a
	// client's send channel is never closed while a send is in flight.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			h.log.Warnf("dropping slow client %s in room %s", c.userID, room)
		}
	}
	return nil
}

// Rooms reports the number of active rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
