package booking

import (
	"context"
	"encoding/json"
	"time"

	"sport_sessions/internal/models"
)

// Store is the persistence boundary of the engine. Implementations must
// return gorm.ErrRecordNotFound for missing rows and gorm.ErrDuplicatedKey
// when the (session, player) uniqueness constraint rejects an insert.
type Store interface {
	// WithTx runs fn in a single transaction. Any error returned by fn
	// rolls the transaction back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	ListSessions(ctx context.Context, filter SessionFilter) ([]SessionView, error)
	GetSessionView(ctx context.Context, id uint) (*SessionView, error)
	ListSports(ctx context.Context) ([]models.Sport, error)
	ActivityReport(ctx context.Context, from, to time.Time) (*ActivityReport, error)
}

// Tx is the store as seen from inside one transaction.
type Tx interface {
	SportExists(ctx context.Context, id uint) (bool, error)
	InsertSession(ctx context.Context, s *models.Session) error
	InsertParticipation(ctx context.Context, sessionID, playerID uint) error

	// LockSession loads a session and holds a write lock on its row until
	// the transaction ends, serialising admission decisions per session.
	LockSession(ctx context.Context, id uint) (*models.Session, error)
	HasParticipation(ctx context.Context, sessionID, playerID uint) (bool, error)
	CountParticipants(ctx context.Context, sessionID uint) (int64, error)
	// HasTimeConflict reports whether playerID participates in another
	// active session scheduled exactly at `at` and later than now.
	HasTimeConflict(ctx context.Context, playerID, excludeSessionID uint, at, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uint, reason string) error
}

// SessionFilter narrows ListSessions. Zero IDs mean "no restriction".
type SessionFilter struct {
	UpcomingAfter time.Time // only active sessions scheduled after this instant
	CreatorID     uint
	ParticipantID uint
}

type Participant struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SessionView is a session joined with its sport, creator and roster.
type SessionView struct {
	ID                 uint            `json:"id"`
	Venue              string          `json:"venue"`
	VenueLocation      json.RawMessage `json:"venue_location,omitempty"`
	ScheduledAt        time.Time       `json:"scheduled_at"`
	PlayersNeeded      int             `json:"players_needed"`
	SpotsLeft          int             `json:"spots_left"`
	Status             string          `json:"status"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	SportID            uint            `json:"sport_id"`
	SportName          string          `json:"sport_name"`
	CreatorID          uint            `json:"creator_id"`
	CreatorName        string          `json:"creator_name"`
	Participants       []Participant   `json:"participants"`
	CreatedAt          time.Time       `json:"created_at"`
}

type SportCount struct {
	SportID      uint   `json:"sport_id"`
	SportName    string `json:"sport_name"`
	SessionCount int64  `json:"session_count"`
}

// ActivityReport summarises non-cancelled sessions scheduled in a window.
type ActivityReport struct {
	From            time.Time    `json:"start_date"`
	To              time.Time    `json:"end_date"`
	TotalSessions   int64        `json:"total_sessions_played"`
	SportPopularity []SportCount `json:"sport_popularity"`
}
