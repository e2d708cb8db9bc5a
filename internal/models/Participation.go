package models

import "time"

// Participation records a player committed to a session.
// The composite unique index is the backstop against double joins.
type Participation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID uint      `json:"session_id" gorm:"not null;uniqueIndex:idx_participation_session_player"`
	PlayerID  uint      `json:"player_id" gorm:"not null;uniqueIndex:idx_participation_session_player;index"`
	CreatedAt time.Time `json:"joined_at"`
}
