package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
	deliveryBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a websocket connection of one authenticated user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	role   string
	rooms  map[int64]struct{}
}

type commandKind int

const (
	commandJoin commandKind = iota
	commandLeave
	commandReject
)

type command struct {
	client *Client
	kind   commandKind
	userID int64
	reason string
}

type delivery struct {
	recipient int64
	frame     []byte
}

// Hub maintains per-user rooms and pushes events to their members.
// A single goroutine (Run) owns clients and rooms.
type Hub struct {
	clients    map[*Client]struct{}
	rooms      map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	commands   chan command
	deliveries chan delivery
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

var _ ports.EventEmitter = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command, deliveryBuffer),
		deliveries: make(chan delivery, deliveryBuffer),
		done:       make(chan struct{}),
		logger:     logger.With(zap.String("component", "websocket_hub")),
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			WebSocketConnections.WithLabelValues(client.role).Inc()
			h.logger.Info("client connected",
				zap.Int64("user_id", client.userID), zap.String("role", client.role), zap.Int("total", total))

		case client := <-h.unregister:
			h.remove(client)

		case cmd := <-h.commands:
			h.handleCommand(cmd)

		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	WebSocketConnections.WithLabelValues(client.role).Dec()
	h.logger.Info("client disconnected",
		zap.Int64("user_id", client.userID), zap.String("role", client.role), zap.Int("total", total))
}

func (h *Hub) leaveLocked(client *Client, room int64) {
	members := h.rooms[room]
	if _, ok := members[client]; !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	delete(client.rooms, room)
	RoomMembers.Dec()
}

func (h *Hub) handleCommand(cmd command) {
	h.mu.Lock()
	if _, ok := h.clients[cmd.client]; !ok {
		h.mu.Unlock()
		return
	}

	var reply []byte
	switch cmd.kind {
	case commandJoin:
		if cmd.userID != cmd.client.userID {
			reply = errorFrame("you can only join your own room")
			break
		}
		if _, ok := cmd.client.rooms[cmd.userID]; !ok {
			if h.rooms[cmd.userID] == nil {
				h.rooms[cmd.userID] = make(map[*Client]struct{})
			}
			h.rooms[cmd.userID][cmd.client] = struct{}{}
			cmd.client.rooms[cmd.userID] = struct{}{}
			RoomMembers.Inc()
		}
		reply = roomFrame("joined", cmd.userID)

	case commandLeave:
		h.leaveLocked(cmd.client, cmd.userID)
		reply = roomFrame("left", cmd.userID)

	case commandReject:
		reply = errorFrame(cmd.reason)
	}
	h.mu.Unlock()

	h.sendTo(cmd.client, reply)
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[d.recipient]))
	for c := range h.rooms[d.recipient] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		EventsEmittedTotal.WithLabelValues("no_subscriber").Inc()
		return
	}
	for _, c := range members {
		h.sendTo(c, d.frame)
	}
	EventsEmittedTotal.WithLabelValues("delivered").Inc()
}

// sendTo never blocks the loop; a client that cannot keep up is disconnected
func (h *Hub) sendTo(client *Client, frame []byte) {
	h.mu.RLock()
	_, ok := h.clients[client]
	if ok {
		select {
		case client.send <- frame:
			h.mu.RUnlock()
			return
		default:
		}
	}
	h.mu.RUnlock()
	if !ok {
		return
	}

	EventsEmittedTotal.WithLabelValues("dropped_slow_client").Inc()
	h.logger.Warn("client send buffer full, disconnecting", zap.Int64("user_id", client.userID))
	h.remove(client)
}

// Emit pushes an event to the recipient's room. It never blocks: when the
// hub is saturated the event is dropped.
func (h *Hub) Emit(_ context.Context, recipientUserID int64, event domain.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		EventsEmittedTotal.WithLabelValues("invalid").Inc()
		h.logger.Warn("dropping event that cannot be encoded", zap.String("event", event.Name), zap.Error(err))
		return
	}

	select {
	case h.deliveries <- delivery{recipient: recipientUserID, frame: frame}:
	default:
		EventsEmittedTotal.WithLabelValues("dropped").Inc()
		h.logger.Warn("hub saturated, dropping event",
			zap.String("event", event.Name), zap.Int64("recipient_user_id", recipientUserID))
	}
}

// ConnectedClients returns the number of open connections
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in a user's room
func (h *Hub) RoomSize(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// ServeClient attaches an upgraded connection to the hub and starts its pumps.
// The client is not in any room until it asks to join.
func (h *Hub) ServeClient(conn *websocket.Conn, userID int64, role string) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		role:   role,
		rooms:  make(map[int64]struct{}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// clientMessage is a frame sent by the browser
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type roomRequest struct {
	UserID int64 `json:"user_id"`
}

func (c *Client) submit(cmd command) {
	select {
	case c.hub.commands <- cmd:
	case <-c.hub.done:
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.submit(command{client: c, kind: commandReject, reason: "malformed message"})
		return
	}

	switch msg.Event {
	case "join", "leave":
		var req roomRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.submit(command{client: c, kind: commandReject, reason: "user_id must be a number"})
				return
			}
		}
		kind := commandJoin
		if msg.Event == "leave" {
			kind = commandLeave
		}
		c.submit(command{client: c, kind: kind, userID: req.UserID})
	default:
		c.submit(command{client: c, kind: commandReject, reason: "unknown event " + msg.Event})
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection, one frame per event
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func roomFrame(event string, userID int64) []byte {
	frame, _ := json.Marshal(domain.Event{
		Name: event,
		Data: map[string]string{"room": domain.RoomName(userID)},
	})
	return frame
}

func errorFrame(message string) []byte {
	frame, _ := json.Marshal(domain.Event{
		Name: "error",
		Data: map[string]string{"message": message},
	})
	return frame
}

// Upgrade upgrades HTTP connection to WebSocket
func Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, responseHeader)
}
