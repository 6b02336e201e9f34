package view

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const readTimeout = 60 * time.Second

// Hub manages WebSocket connections to the business application's UI. It
// broadcasts refresh/navigate signals outward and feeds inbound view reports
// into a Tracker.
type Hub struct {
	tracker     *Tracker
	logger      *zap.Logger
	connections map[*websocket.Conn]bool
	broadcast   chan *Signal
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	done        chan struct{}
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
}

// Signal is one outbound message to connected UI clients
type Signal struct {
	Type      string `json:"type"`   // "refresh" or "navigate"
	Entity    string `json:"entity"` // entity whose views should react
	Filter    string `json:"filter,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp
}

// clientMessage is the inbound report a UI client sends when the user
// changes views
type clientMessage struct {
	Type        string `json:"type"` // "view" or "clear"
	Entity      string `json:"entity"`
	Kind        string `json:"kind"` // "list" or "detail"
	RecordID    string `json:"record_id"`
	RecordLabel string `json:"record_label"`
}

// NewHub creates a hub feeding the given tracker and starts its run loop
func NewHub(tracker *Tracker, logger *zap.Logger) *Hub {
	if tracker == nil {
		tracker = NewTracker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		tracker:     tracker,
		logger:      logger,
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan *Signal, 256),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Allow no origin (same-origin)
					return true
				}
				// Allow localhost only for security
				return strings.HasPrefix(origin, "http://localhost") ||
					strings.HasPrefix(origin, "https://localhost") ||
					strings.HasPrefix(origin, "http://127.0.0.1") ||
					strings.HasPrefix(origin, "https://127.0.0.1")
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	go h.run()

	return h
}

// Tracker returns the tracker this hub feeds
func (h *Hub) Tracker() *Tracker {
	return h.tracker
}

// run handles the WebSocket connection lifecycle
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.logger.Debug("view hub shutting down")
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.connections[conn] = true
			total := len(h.connections)
			h.mutex.Unlock()
			h.logger.Debug("ui client connected", zap.Int("total", total))

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				conn.Close()
			}
			total := len(h.connections)
			h.mutex.Unlock()
			h.logger.Debug("ui client disconnected", zap.Int("total", total))

		case signal := <-h.broadcast:
			h.sendToAll(signal)
		}
	}
}

// sendToAll sends a signal to all connected clients
func (h *Hub) sendToAll(signal *Signal) {
	payload, err := json.Marshal(signal)
	if err != nil {
		h.logger.Warn("failed to marshal ui signal", zap.Error(err))
		return
	}

	// Collect failed connections while holding read lock
	h.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("failed to send ui signal", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	h.mutex.RUnlock()

	// Remove failed connections with write lock
	if len(failed) > 0 {
		h.mutex.Lock()
		for _, conn := range failed {
			if _, ok := h.connections[conn]; ok {
				conn.Close()
				delete(h.connections, conn)
			}
		}
		h.mutex.Unlock()
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade ui connection", zap.Error(err))
		return
	}

	// The run loop is gone once the hub is closed; a late upgrade must not
	// block here forever.
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go h.readMessages(conn)
}

// readMessages consumes view reports from one client until it disconnects
func (h *Hub) readMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
			conn.Close()
		}
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("ui websocket error", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleInbound(data)
	}
}

// handleInbound applies one client report to the tracker
func (h *Hub) handleInbound(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Debug("ignoring malformed ui message", zap.Error(err))
		return
	}

	switch msg.Type {
	case "view":
		h.tracker.Set(Context{
			Entity:      msg.Entity,
			Kind:        ParseKind(msg.Kind),
			RecordID:    msg.RecordID,
			RecordLabel: msg.RecordLabel,
		})
		h.logger.Debug("active view changed",
			zap.String("entity", msg.Entity),
			zap.String("kind", msg.Kind))
	case "clear":
		h.tracker.Clear()
		h.logger.Debug("active view cleared")
	default:
		h.logger.Debug("ignoring unknown ui message", zap.String("type", msg.Type))
	}
}

// NotifyRefresh asks open views of an entity to reload their data. The
// signal is best-effort: when no client is connected or the buffer is full
// it is dropped.
func (h *Hub) NotifyRefresh(entity string) {
	h.enqueue(&Signal{
		Type:      "refresh",
		Entity:    entity,
		Timestamp: time.Now().Unix(),
	})
}

// NotifyNavigate asks the UI to open a view of an entity, optionally
// pre-filtered. Best-effort, like NotifyRefresh.
func (h *Hub) NotifyNavigate(entity, filter string) {
	h.enqueue(&Signal{
		Type:      "navigate",
		Entity:    entity,
		Filter:    filter,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) enqueue(signal *Signal) {
	select {
	case h.broadcast <- signal:
	default:
		h.logger.Debug("dropping ui signal, buffer full", zap.String("type", signal.Type))
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections)
}

// Close closes all connections and stops the hub
func (h *Hub) Close() {
	close(h.done)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.connections {
		conn.Close()
	}
	h.connections = make(map[*websocket.Conn]bool)
}
