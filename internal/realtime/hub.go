// Package realtime fans session lifecycle events out to WebSocket watchers.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types published after a committed change.
const (
	EventSessionCreated   = "session_created"
	EventSessionJoined    = "session_joined"
	EventSessionCancelled = "session_cancelled"
)

const writeWait = 5 * time.Second

// Event is the JSON frame pushed to watchers.
type Event struct {
	Type          string    `json:"type"`
	SessionID     uint      `json:"session_id"`
	UserID        uint      `json:"user_id"`
	Participants  int       `json:"participants,omitempty"`
	PlayersNeeded int       `json:"players_needed,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	At            time.Time `json:"at"`
}

// Hub keeps watcher connections keyed by the session they follow; key 0
// watches every session.
type Hub struct {
	clients   map[uint]map[*websocket.Conn]bool
	broadcast chan Event
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub starts the broadcast loop. buffer bounds the number of queued events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 100
	}
	h := &Hub{
		clients:   make(map[uint]map[*websocket.Conn]bool),
		broadcast: make(chan Event, buffer),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	var targets []*websocket.Conn
	for conn := range h.clients[0] {
		targets = append(targets, conn)
	}
	if ev.SessionID != 0 {
		for conn := range h.clients[ev.SessionID] {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"session_id": ev.SessionID,
				"conn_ptr":   fmt.Sprintf("%p", conn),
			}).Info("Dropping watcher after failed write.")
			h.drop(conn)
			_ = conn.Close()
		}
	}
}

// Register adds conn as a watcher of sessionID (0 for all sessions).
func (h *Hub) Register(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sessionID]; !ok {
		h.clients[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.clients[sessionID][conn] = true
	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}).Debug("Watcher registered.")
}

func (h *Hub) Unregister(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[sessionID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, sessionID)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		if clients[conn] {
			delete(clients, conn)
			if len(clients) == 0 {
				delete(h.clients, id)
			}
		}
	}
}

// Publish queues ev for delivery without blocking. When the queue is full the
// event is dropped; watchers can always re-read the session.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case <-h.done:
	case h.broadcast <- ev:
	default:
		logrus.WithFields(logrus.Fields{
			"type":       ev.Type,
			"session_id": ev.SessionID,
		}).Warn("Session event channel full, dropping message.")
	}
}

// Subscribers counts the watchers of sessionID, excluding global watchers.
func (h *Hub) Subscribers(sessionID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Close stops the broadcast loop and closes every watcher connection.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for id, clients := range h.clients {
			for conn := range clients {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				_ = conn.Close()
			}
			delete(h.clients, id)
		}
	})
}
