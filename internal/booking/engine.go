// Package booking enforces the session lifecycle and participant admission
// rules on top of a Store. The engine keeps no state between calls.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"sport_sessions/internal/models"
	"sport_sessions/internal/venue"
)

// DefaultTimeout bounds a single engine operation, store I/O included.
const DefaultTimeout = 5 * time.Second

// Actor is the caller identity supplied by the identity provider.
type Actor struct {
	UserID uint
	Role   string
}

// CreateInput carries the fields of a new session as submitted by its creator.
type CreateInput struct {
	SportID       uint
	Venue         string
	VenueLocation json.RawMessage // optional GeoJSON Point
	ScheduledAt   time.Time
	PlayersNeeded int
}

// JoinResult describes the roster right after a successful join.
type JoinResult struct {
	SessionID     uint `json:"session_id"`
	PlayerID      uint `json:"player_id"`
	Participants  int  `json:"participants"`
	PlayersNeeded int  `json:"players_needed"`
}

// Engine runs session operations, each inside one store transaction.
type Engine struct {
	store   Store
	now     func() time.Time
	timeout time.Duration
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTimeout bounds each operation to d. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine returns an engine over store with a UTC clock and DefaultTimeout.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("sport_sessions/booking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(), trace.Span) {
	ctx, span := e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	return ctx, func() {
		cancel()
		span.End()
	}, span
}

// fail translates err and records it on the span. Store faults are logged
// here since callers only see the stable kind.
func (e *Engine) fail(span trace.Span, op string, err error) error {
	out := translate(op, err)
	kind := KindOf(out)
	span.SetAttributes(attribute.String("booking.error_kind", string(kind)))
	if kind == KindUnavailable {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
		logrus.WithError(err).WithField("op", op).Error("booking store failure")
	}
	return out
}

// CreateSession schedules a session and counts the creator as its first
// participant. Both rows are written in one transaction.
func (e *Engine) CreateSession(ctx context.Context, actor Actor, in CreateInput) (*SessionView, error) {
	ctx, end, span := e.begin(ctx, "booking.CreateSession",
		attribute.Int64("user.id", int64(actor.UserID)),
		attribute.Int64("sport.id", int64(in.SportID)))
	defer end()

	if actor.UserID == 0 {
		return nil, newError(KindValidation, "an authenticated user is required")
	}
	venueName := strings.TrimSpace(in.Venue)
	if venueName == "" {
		return nil, newError(KindValidation, "venue is required")
	}
	if in.PlayersNeeded <= 0 {
		return nil, newError(KindValidation, "players_needed must be a positive integer")
	}
	scheduledAt := models.NormalizeTime(in.ScheduledAt)
	if !scheduledAt.After(e.now()) {
		return nil, newError(KindValidation, "scheduled_at must be in the future")
	}
	location, err := venue.EncodePoint(in.VenueLocation)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "invalid venue_location", Err: err}
	}

	session := models.Session{
		Venue:         venueName,
		VenueLocation: location,
		ScheduledAt:   scheduledAt,
		PlayersNeeded: in.PlayersNeeded,
		Status:        models.StatusActive,
		SportID:       in.SportID,
		CreatorID:     actor.UserID,
	}
	err = e.store.WithTx(ctx, func(tx Tx) error {
		ok, err := tx.SportExists(ctx, in.SportID)
		if err != nil {
			return err
		}
		if !ok {
			return newError(KindNotFound, "sport %d does not exist", in.SportID)
		}
		if err := tx.InsertSession(ctx, &session); err != nil {
			return err
		}
		return tx.InsertParticipation(ctx, session.ID, actor.UserID)
	})
	if err != nil {
		return nil, e.fail(span, "create session", err)
	}
	span.SetAttributes(attribute.Int64("session.id", int64(session.ID)))

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"creator_id": actor.UserID,
		"sport_id":   in.SportID,
	}).Info("session created")

	view, err := e.store.GetSessionView(ctx, session.ID)
	if err != nil {
		// The session is committed; answer from what we wrote.
		logrus.WithError(err).WithField("session_id", session.ID).Warn("reload created session")
		return bareView(&session), nil
	}
	return view, nil
}

func bareView(s *models.Session) *SessionView {
	loc, _ := venue.DecodePoint(s.VenueLocation)
	return &SessionView{
		ID:            s.ID,
		Venue:         s.Venue,
		VenueLocation: loc,
		ScheduledAt:   s.ScheduledAt,
		PlayersNeeded: s.PlayersNeeded,
		SpotsLeft:     s.PlayersNeeded - 1,
		Status:        s.Status,
		SportID:       s.SportID,
		CreatorID:     s.CreatorID,
		Participants:  []Participant{{ID: s.CreatorID}},
		CreatedAt:     s.CreatedAt,
	}
}

// JoinSession admits actor to a session. The eligibility checks and the
// insert happen under the session's row lock, so concurrent joins cannot
// over-admit.
func (e *Engine) JoinSession(ctx context.Context, actor Actor, sessionID uint) (JoinResult, error) {
	ctx, end, span := e.begin(ctx, "booking.JoinSession",
		attribute.Int64("user.id", int64(actor.UserID)),
		attribute.Int64("session.id", int64(sessionID)))
	defer end()

	if actor.UserID == 0 {
		return JoinResult{}, newError(KindValidation, "an authenticated user is required")
	}

	now := e.now().UTC()
	var res JoinResult
	err := e.store.WithTx(ctx, func(tx Tx) error {
		s, err := tx.LockSession(ctx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotAvailable, "active session not found")
		}
		if err != nil {
			return err
		}
		if !s.Joinable(now) {
			return newError(KindNotAvailable, "active session not found")
		}

		joined, err := tx.HasParticipation(ctx, sessionID, actor.UserID)
		if err != nil {
			return err
		}
		if joined {
			return newError(KindAlreadyJoined, "you have already joined this session")
		}

		conflict, err := tx.HasTimeConflict(ctx, actor.UserID, sessionID, s.ScheduledAt, now)
		if err != nil {
			return err
		}
		if conflict {
			return newError(KindTimeConflict, "you have joined another session scheduled at this exact time")
		}

		count, err := tx.CountParticipants(ctx, sessionID)
		if err != nil {
			return err
		}
		if count >= int64(s.PlayersNeeded) {
			return newError(KindSessionFull, "session is already full")
		}

		if err := tx.InsertParticipation(ctx, sessionID, actor.UserID); err != nil {
			return err
		}
		res = JoinResult{
			SessionID:     sessionID,
			PlayerID:      actor.UserID,
			Participants:  int(count) + 1,
			PlayersNeeded: s.PlayersNeeded,
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, e.fail(span, "join session", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":   sessionID,
		"player_id":    actor.UserID,
		"participants": res.Participants,
	}).Info("session joined")
	return res, nil
}

// CancelSession moves a session to the terminal cancelled state. Only the
// creator may cancel and a reason is mandatory. Participations are kept.
func (e *Engine) CancelSession(ctx context.Context, actor Actor, sessionID uint, reason string) (*models.Session, error) {
	ctx, end, span := e.begin(ctx, "booking.CancelSession",
		attribute.Int64("user.id", int64(actor.UserID)),
		attribute.Int64("session.id", int64(sessionID)))
	defer end()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(KindValidation, "a cancellation reason is required")
	}

	var cancelled *models.Session
	err := e.store.WithTx(ctx, func(tx Tx) error {
		s, err := tx.LockSession(ctx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "session not found")
		}
		if err != nil {
			return err
		}
		if s.CreatorID != actor.UserID {
			return newError(KindForbidden, "you are not the creator of this session")
		}
		if s.IsCancelled() {
			return newError(KindAlreadyCancelled, "this session has already been cancelled")
		}
		if err := tx.MarkCancelled(ctx, sessionID, reason); err != nil {
			return err
		}
		s.Status = models.StatusCancelled
		s.CancellationReason = &reason
		cancelled = s
		return nil
	})
	if err != nil {
		return nil, e.fail(span, "cancel session", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"creator_id": actor.UserID,
	}).Info("session cancelled")
	return cancelled, nil
}
