// Package store is the gorm-backed Session Store used by the booking engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sport_sessions/internal/booking"
	"sport_sessions/internal/models"
)

var _ booking.Store = (*Store)(nil)

// Store implements booking.Store and the read-side queries on a gorm handle.
type Store struct {
	db *gorm.DB
	// rowLocks is false on SQLite, which has no SELECT ... FOR UPDATE and
	// instead serialises writers on its single connection.
	rowLocks bool
}

// New wraps db. Row locks are taken only when db talks to Postgres.
func New(db *gorm.DB) *Store {
	return &Store{db: db, rowLocks: db.Dialector.Name() == "postgres"}
}

// DB exposes the underlying handle for wiring and tests.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&txStore{db: db, rowLocks: s.rowLocks})
	})
}

type txStore struct {
	db       *gorm.DB
	rowLocks bool
}

func (t *txStore) SportExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := t.db.WithContext(ctx).Model(&models.Sport{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup sport %d: %w", id, err)
	}
	return n > 0, nil
}

func (t *txStore) InsertSession(ctx context.Context, session *models.Session) error {
	if err := t.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (t *txStore) InsertParticipation(ctx context.Context, sessionID, playerID uint) error {
	p := models.Participation{SessionID: sessionID, PlayerID: playerID}
	if err := t.db.WithContext(ctx).Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert participation: %w", gorm.ErrDuplicatedKey)
		}
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

func (t *txStore) LockSession(ctx context.Context, id uint) (*models.Session, error) {
	q := t.db.WithContext(ctx)
	if t.rowLocks {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var session models.Session
	if err := q.First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("load session %d: %w", id, err)
	}
	return &session, nil
}

func (t *txStore) HasParticipation(ctx context.Context, sessionID, playerID uint) (bool, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&models.Participation{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("lookup participation: %w", err)
	}
	return n > 0, nil
}

func (t *txStore) CountParticipants(ctx context.Context, sessionID uint) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&models.Participation{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

func (t *txStore) HasTimeConflict(ctx context.Context, playerID, excludeSessionID uint, at, now time.Time) (bool, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&models.Participation{}).
		Joins("JOIN sessions ON sessions.id = participations.session_id AND sessions.deleted_at IS NULL").
		Where("participations.player_id = ? AND participations.session_id <> ?", playerID, excludeSessionID).
		Where("sessions.status = ? AND sessions.scheduled_at = ? AND sessions.scheduled_at > ?",
			models.StatusActive, at.UTC(), now.UTC()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check time conflict: %w", err)
	}
	return n > 0, nil
}

func (t *txStore) MarkCancelled(ctx context.Context, id uint, reason string) error {
	res := t.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]any{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
		})
	if res.Error != nil {
		return fmt.Errorf("cancel session %d: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return errors.New("cancel session: row changed under lock")
	}
	return nil
}
