package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sport_sessions/internal/booking"
	"sport_sessions/internal/models"
	"sport_sessions/internal/venue"
)

// sessionRow is one session joined with its sport and creator names.
type sessionRow struct {
	ID                 uint
	Venue              string
	VenueLocation      []byte
	ScheduledAt        time.Time
	PlayersNeeded      int
	Status             string
	CancellationReason *string
	SportID            uint
	SportName          string
	CreatorID          uint
	CreatorName        string
	CreatedAt          time.Time
}

type participantRow struct {
	SessionID uint
	ID        uint
	Name      string
}

func (s *Store) sessionQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("sessions").
		Select(`sessions.id, sessions.venue, sessions.venue_location, sessions.scheduled_at,
			sessions.players_needed, sessions.status, sessions.cancellation_reason,
			sessions.sport_id, COALESCE(sports.name, '') AS sport_name,
			sessions.creator_id, COALESCE(users.name, '') AS creator_name, sessions.created_at`).
		Joins("LEFT JOIN sports ON sports.id = sessions.sport_id").
		Joins("LEFT JOIN users ON users.id = sessions.creator_id").
		Where("sessions.deleted_at IS NULL")
}

// ListSessions returns sessions matching filter ordered by scheduled time.
func (s *Store) ListSessions(ctx context.Context, filter booking.SessionFilter) ([]booking.SessionView, error) {
	q := s.sessionQuery(ctx)
	if !filter.UpcomingAfter.IsZero() {
		q = q.Where("sessions.status = ? AND sessions.scheduled_at > ?", models.StatusActive, filter.UpcomingAfter.UTC())
	}
	if filter.CreatorID != 0 {
		q = q.Where("sessions.creator_id = ?", filter.CreatorID)
	}
	if filter.ParticipantID != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM participations p WHERE p.session_id = sessions.id AND p.player_id = ?)",
			filter.ParticipantID)
	}

	var rows []sessionRow
	if err := q.Order("sessions.scheduled_at ASC, sessions.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return s.attachRosters(ctx, rows)
}

// GetSessionView returns gorm.ErrRecordNotFound when the session does not exist.
func (s *Store) GetSessionView(ctx context.Context, id uint) (*booking.SessionView, error) {
	var rows []sessionRow
	if err := s.sessionQuery(ctx).Where("sessions.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get session %d: %w", id, gorm.ErrRecordNotFound)
	}
	views, err := s.attachRosters(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Store) attachRosters(ctx context.Context, rows []sessionRow) ([]booking.SessionView, error) {
	views := make([]booking.SessionView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var prows []participantRow
	err := s.db.WithContext(ctx).Table("participations").
		Select("participations.session_id, participations.player_id AS id, COALESCE(users.name, '') AS name").
		Joins("LEFT JOIN users ON users.id = participations.player_id").
		Where("participations.session_id IN ?", ids).
		Order("participations.created_at ASC, participations.id ASC").
		Scan(&prows).Error
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	rosters := make(map[uint][]booking.Participant, len(rows))
	for _, p := range prows {
		rosters[p.SessionID] = append(rosters[p.SessionID], booking.Participant{ID: p.ID, Name: p.Name})
	}

	for _, r := range rows {
		roster := rosters[r.ID]
		if roster == nil {
			roster = []booking.Participant{}
		}
		loc, err := venue.DecodePoint(r.VenueLocation)
		if err != nil {
			logrus.WithError(err).WithField("session_id", r.ID).Warn("dropping unreadable venue location")
			loc = nil
		}
		views = append(views, booking.SessionView{
			ID:                 r.ID,
			Venue:              r.Venue,
			VenueLocation:      loc,
			ScheduledAt:        r.ScheduledAt.UTC(),
			PlayersNeeded:      r.PlayersNeeded,
			SpotsLeft:          max(r.PlayersNeeded-len(roster), 0),
			Status:             r.Status,
			CancellationReason: r.CancellationReason,
			SportID:            r.SportID,
			SportName:          r.SportName,
			CreatorID:          r.CreatorID,
			CreatorName:        r.CreatorName,
			Participants:       roster,
			CreatedAt:          r.CreatedAt.UTC(),
		})
	}
	return views, nil
}
