package models

import (
	"time"

	"gorm.io/gorm"
)

// Session lifecycle states. A session starts active and may only move to cancelled.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Session is a scheduled meetup for a sport with a fixed number of places.
// CancellationReason is set iff Status is StatusCancelled.
type Session struct {
	gorm.Model
	Venue              string    `json:"venue" gorm:"not null"`
	VenueLocation      []byte    `json:"-" gorm:"type:bytea"` // WKB point, see internal/venue
	ScheduledAt        time.Time `json:"scheduled_at" gorm:"not null;index"`
	PlayersNeeded      int       `json:"players_needed" gorm:"not null"`
	Status             string    `json:"status" gorm:"not null;default:active;index"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`

	SportID   uint `json:"sport_id" gorm:"not null;index"`
	CreatorID uint `json:"creator_id" gorm:"not null;index"`
}

func (s *Session) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Joinable reports whether the session still accepts participants at now.
func (s *Session) Joinable(now time.Time) bool {
	return s.Status == StatusActive && s.ScheduledAt.After(now)
}

// NormalizeTime puts a scheduled time in the form it is stored and compared in:
// UTC with microsecond precision, matching postgres timestamptz.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
