// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"sport_sessions/internal/config"
	"sport_sessions/internal/models"
	"sport_sessions/internal/store"
)

var seq atomic.Int64

// Open returns a migrated store in a temp directory that is closed when the
// test ends.
func Open(t testing.TB) *store.Store {
	t.Helper()
	cfg := config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sessions.db"),
	}
	db, err := config.OpenDB(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := store.New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// User creates a player with a unique email.
func User(t testing.TB, s *store.Store, name string) *models.User {
	t.Helper()
	return UserWithRole(t, s, name, models.RolePlayer)
}

func UserWithRole(t testing.TB, s *store.Store, name, role string) *models.User {
	t.Helper()
	u := &models.User{
		Name:  name,
		Email: fmt.Sprintf("user%d@example.com", seq.Add(1)),
		Role:  role,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// Sport returns the catalog entry for name, creating it if needed.
func Sport(t testing.TB, s *store.Store, name string) *models.Sport {
	t.Helper()
	ctx := context.Background()
	if _, err := s.EnsureSports(ctx, []string{name}); err != nil {
		t.Fatalf("seed sport %s: %v", name, err)
	}
	sports, err := s.ListSports(ctx)
	if err != nil {
		t.Fatalf("list sports: %v", err)
	}
	for i := range sports {
		if sports[i].Name == name {
			return &sports[i]
		}
	}
	t.Fatalf("sport %s missing after seed", name)
	return nil
}
