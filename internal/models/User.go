package models

import "gorm.io/gorm"

// Roles issued by the identity provider.
const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	gorm.Model
	Name  string `json:"name" gorm:"not null"`
	Email string `json:"email" gorm:"uniqueIndex;not null"`
	Role  string `json:"role" gorm:"not null;default:player"` // "player", "admin"
}

// ValidRole reports whether role is one the identity provider can issue.
func ValidRole(role string) bool {
	return role == RolePlayer || role == RoleAdmin
}
