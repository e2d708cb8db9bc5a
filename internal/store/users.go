package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sport_sessions/internal/models"
)

// CreateUser registers a user profile. Duplicate emails surface as
// gorm.ErrDuplicatedKey.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", user.Email, gorm.ErrDuplicatedKey)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", email, err)
	}
	return &user, nil
}

// UpdateUserName changes the display name; a blank name keeps the current one.
func (s *Store) UpdateUserName(ctx context.Context, id uint, name string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		return user, nil
	}
	user.Name = name
	if err := s.db.WithContext(ctx).Model(user).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}
