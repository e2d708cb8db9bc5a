package booking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"sport_sessions/internal/models"
)

// ListAvailable returns active sessions scheduled in the future, soonest first.
func (e *Engine) ListAvailable(ctx context.Context) ([]SessionView, error) {
	ctx, end, span := e.begin(ctx, "booking.ListAvailable")
	defer end()

	views, err := e.store.ListSessions(ctx, SessionFilter{UpcomingAfter: e.now()})
	if err != nil {
		return nil, e.fail(span, "list sessions", err)
	}
	return views, nil
}

// ListJoined returns the upcoming active sessions actor participates in,
// including the ones actor created.
func (e *Engine) ListJoined(ctx context.Context, actor Actor) ([]SessionView, error) {
	ctx, end, span := e.begin(ctx, "booking.ListJoined", attribute.Int64("user.id", int64(actor.UserID)))
	defer end()

	views, err := e.store.ListSessions(ctx, SessionFilter{UpcomingAfter: e.now(), ParticipantID: actor.UserID})
	if err != nil {
		return nil, e.fail(span, "list joined sessions", err)
	}
	return views, nil
}

// ListCreated returns the upcoming active sessions actor created.
func (e *Engine) ListCreated(ctx context.Context, actor Actor) ([]SessionView, error) {
	ctx, end, span := e.begin(ctx, "booking.ListCreated", attribute.Int64("user.id", int64(actor.UserID)))
	defer end()

	views, err := e.store.ListSessions(ctx, SessionFilter{UpcomingAfter: e.now(), CreatorID: actor.UserID})
	if err != nil {
		return nil, e.fail(span, "list created sessions", err)
	}
	return views, nil
}

// GetSession returns one session with its roster, whatever its status.
func (e *Engine) GetSession(ctx context.Context, id uint) (*SessionView, error) {
	ctx, end, span := e.begin(ctx, "booking.GetSession", attribute.Int64("session.id", int64(id)))
	defer end()

	view, err := e.store.GetSessionView(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, "session not found")
	}
	if err != nil {
		return nil, e.fail(span, "get session", err)
	}
	return view, nil
}

func (e *Engine) ListSports(ctx context.Context) ([]models.Sport, error) {
	ctx, end, span := e.begin(ctx, "booking.ListSports")
	defer end()

	sports, err := e.store.ListSports(ctx)
	if err != nil {
		return nil, e.fail(span, "list sports", err)
	}
	return sports, nil
}

// ActivityReport counts non-cancelled sessions scheduled within [from, to].
func (e *Engine) ActivityReport(ctx context.Context, from, to time.Time) (*ActivityReport, error) {
	ctx, end, span := e.begin(ctx, "booking.ActivityReport")
	defer end()

	if to.Before(from) {
		return nil, newError(KindValidation, "end_date must not be before start_date")
	}
	report, err := e.store.ActivityReport(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, e.fail(span, "activity report", err)
	}
	return report, nil
}
