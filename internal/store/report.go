package store

import (
	"context"
	"fmt"
	"time"

	"sport_sessions/internal/booking"
	"sport_sessions/internal/models"
)

func (s *Store) ActivityReport(ctx context.Context, from, to time.Time) (*booking.ActivityReport, error) {
	report := &booking.ActivityReport{From: from, To: to, SportPopularity: []booking.SportCount{}}

	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("scheduled_at BETWEEN ? AND ? AND status <> ?", from, to, models.StatusCancelled).
		Count(&report.TotalSessions).Error
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	err = s.db.WithContext(ctx).Table("sessions").
		Select("sports.id AS sport_id, sports.name AS sport_name, COUNT(sessions.id) AS session_count").
		Joins("JOIN sports ON sports.id = sessions.sport_id").
		Where("sessions.deleted_at IS NULL").
		Where("sessions.scheduled_at BETWEEN ? AND ? AND sessions.status <> ?", from, to, models.StatusCancelled).
		Group("sports.id, sports.name").
		Order("session_count DESC, sports.name ASC").
		Scan(&report.SportPopularity).Error
	if err != nil {
		return nil, fmt.Errorf("sport popularity: %w", err)
	}
	return report, nil
}
