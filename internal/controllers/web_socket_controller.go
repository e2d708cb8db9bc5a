package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sport_sessions/internal/middleware"
	"sport_sessions/internal/realtime"
)

// upgrader configures the WebSocket connection. Watchers authenticate with a
// token, so any origin may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TokenValidator interface {
	ValidateToken(token string) (*middleware.Claims, error)
}

const (
	feedPongWait  = 60 * time.Second
	feedReadLimit = 512
)

type WebSocketController struct {
	auth TokenValidator
	hub  *realtime.Hub
	// A watcher that sends no pong within pongWait is dropped. Pings go out
	// every pingPeriod, which must be shorter than pongWait.
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewWebSocketController(auth TokenValidator, hub *realtime.Hub) *WebSocketController {
	return &WebSocketController{
		auth:       auth,
		hub:        hub,
		pongWait:   feedPongWait,
		pingPeriod: feedPongWait * 9 / 10,
	}
}

// HandleSessionFeed upgrades GET /ws/sessions?token=...&session_id=... to a
// read-only feed of session lifecycle events. Without session_id the
// watcher receives events for every session.
func (h *WebSocketController) HandleSessionFeed(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token", "code": "unauthorized"})
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt with invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
		return
	}

	var sessionID uint
	if raw := c.Query("session_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid session_id")
			return
		}
		sessionID = uint(id)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	fields := logrus.Fields{
		"user_id":    claims.UserID,
		"session_id": sessionID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}
	logrus.WithFields(fields).Info("Session feed connection established.")

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	h.hub.Register(sessionID, conn)
	defer h.hub.Unregister(sessionID, conn)

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithFields(fields).Debug("Session feed read ended.")
			}
			break
		}
		// Watchers only listen; inbound frames are ignored.
	}
	logrus.WithFields(fields).Info("Session feed connection closed.")
}

// keepAlive pings the watcher until done is closed or a ping fails.
// WriteControl may run alongside the hub's broadcast writes.
func (h *WebSocketController) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
