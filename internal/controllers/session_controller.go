package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sport_sessions/internal/booking"
	"sport_sessions/internal/middleware"
	"sport_sessions/internal/models"
	"sport_sessions/internal/realtime"
)

// SessionService is the booking surface the HTTP layer drives.
type SessionService interface {
	CreateSession(ctx context.Context, actor booking.Actor, in booking.CreateInput) (*booking.SessionView, error)
	JoinSession(ctx context.Context, actor booking.Actor, sessionID uint) (booking.JoinResult, error)
	CancelSession(ctx context.Context, actor booking.Actor, sessionID uint, reason string) (*models.Session, error)
	GetSession(ctx context.Context, id uint) (*booking.SessionView, error)
	ListAvailable(ctx context.Context) ([]booking.SessionView, error)
	ListJoined(ctx context.Context, actor booking.Actor) ([]booking.SessionView, error)
	ListCreated(ctx context.Context, actor booking.Actor) ([]booking.SessionView, error)
}

// Publisher receives lifecycle events after each committed change.
type Publisher interface {
	Publish(ev realtime.Event)
}

type SessionController struct {
	svc    SessionService
	events Publisher
}

func NewSessionController(svc SessionService, events Publisher) *SessionController {
	return &SessionController{svc: svc, events: events}
}

type createSessionRequest struct {
	SportID       uint            `json:"sport_id" binding:"required"`
	Venue         string          `json:"venue" binding:"required"`
	VenueLocation json.RawMessage `json:"venue_location"`
	ScheduledAt   time.Time       `json:"scheduled_at" binding:"required"`
	PlayersNeeded int             `json:"players_needed" binding:"required,gt=0"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *SessionController) publish(ev realtime.Event) {
	if h.events != nil {
		h.events.Publish(ev)
	}
}

// actor returns the authenticated caller or answers 401.
func actor(c *gin.Context) (booking.Actor, bool) {
	a, ok := middleware.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
	}
	return a, ok
}

// CreateSession handles POST /sessions.
func (h *SessionController) CreateSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	view, err := h.svc.CreateSession(c.Request.Context(), a, booking.CreateInput{
		SportID:       req.SportID,
		Venue:         req.Venue,
		VenueLocation: req.VenueLocation,
		ScheduledAt:   req.ScheduledAt,
		PlayersNeeded: req.PlayersNeeded,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(realtime.Event{
		Type:          realtime.EventSessionCreated,
		SessionID:     view.ID,
		UserID:        a.UserID,
		Participants:  len(view.Participants),
		PlayersNeeded: view.PlayersNeeded,
	})
	c.JSON(http.StatusCreated, view)
}

// JoinSession handles POST /sessions/:id/join.
func (h *SessionController) JoinSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.JoinSession(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(realtime.Event{
		Type:          realtime.EventSessionJoined,
		SessionID:     id,
		UserID:        a.UserID,
		Participants:  res.Participants,
		PlayersNeeded: res.PlayersNeeded,
	})
	c.JSON(http.StatusOK, res)
}

// CancelSession handles POST /sessions/:id/cancel.
func (h *SessionController) CancelSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req cancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a cancellation reason is required")
		return
	}
	s, err := h.svc.CancelSession(c.Request.Context(), a, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	reason := ""
	if s.CancellationReason != nil {
		reason = *s.CancellationReason
	}
	h.publish(realtime.Event{
		Type:      realtime.EventSessionCancelled,
		SessionID: id,
		UserID:    a.UserID,
		Reason:    reason,
	})
	c.JSON(http.StatusOK, gin.H{
		"id":                  s.ID,
		"status":              s.Status,
		"cancellation_reason": reason,
	})
}

// GetSession handles GET /sessions/:id.
func (h *SessionController) GetSession(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListAvailable handles GET /sessions. Anonymous callers may read.
func (h *SessionController) ListAvailable(c *gin.Context) {
	views, err := h.svc.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if a, ok := middleware.ActorFromContext(c); ok {
		logrus.WithFields(logrus.Fields{"user_id": a.UserID, "count": len(views)}).Debug("Listed available sessions.")
	}
	c.JSON(http.StatusOK, views)
}

func (h *SessionController) ListJoined(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	views, err := h.svc.ListJoined(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *SessionController) ListCreated(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	views, err := h.svc.ListCreated(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
