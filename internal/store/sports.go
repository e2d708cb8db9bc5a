package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"sport_sessions/internal/models"
)

func (s *Store) ListSports(ctx context.Context) ([]models.Sport, error) {
	var sports []models.Sport
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&sports).Error; err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	return sports, nil
}

// EnsureSports inserts any of names not yet in the catalog. Blank names are
// skipped; existing names are left untouched.
func (s *Store) EnsureSports(ctx context.Context, names []string) (int64, error) {
	var sports []models.Sport
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		sports = append(sports, models.Sport{Name: n})
	}
	if len(sports) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&sports)
	if res.Error != nil {
		return 0, fmt.Errorf("seed sports: %w", res.Error)
	}
	return res.RowsAffected, nil
}
