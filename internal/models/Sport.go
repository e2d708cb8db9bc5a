package models

import (
	"gorm.io/gorm"
)

// Sport is a catalog entry sessions are scheduled for.
// The catalog is seeded at boot and read-only at runtime.
type Sport struct {
	gorm.Model
	Name    string `json:"name" gorm:"uniqueIndex;not null"`
	AdminID *uint  `json:"admin_id,omitempty"` // admin that registered the sport, nil when seeded
}
