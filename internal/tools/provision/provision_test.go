package provision

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"sport_sessions/internal/middleware"
	"sport_sessions/internal/store/storetest"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-name", "Ana", "-email", "ana@example.com"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Role != "player" || cfg.TTL != 72*time.Hour {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cases := []Config{
		{Name: "", Email: "a@example.com", Role: "player", TTL: time.Hour},
		{Name: "A", Email: "nope", Role: "player", TTL: time.Hour},
		{Name: "A", Email: "Alice Smith <alice@example.com>", Role: "player", TTL: time.Hour},
		{Name: "  ", Email: "a@example.com", Role: "player", TTL: time.Hour},
		{Name: "A", Email: "a@example.com", Role: "owner", TTL: time.Hour},
		{Name: "A", Email: "a@example.com", Role: "player", TTL: 0},
	}
	for _, cfg := range cases {
		if err := Run(context.Background(), cfg, nil, nil, &bytes.Buffer{}); err == nil {
			t.Errorf("Run(%+v) succeeded", cfg)
		}
	}
}

func TestRunCreatesUserAndToken(t *testing.T) {
	s := storetest.Open(t)
	auth := middleware.NewAuthenticator("secret")
	cfg := Config{Name: "Root", Email: "root@example.com", Role: "admin", TTL: time.Hour}

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, s, auth, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "TOKEN=") {
		t.Fatalf("output = %q", out.String())
	}
	claims, err := auth.ValidateToken(strings.TrimPrefix(lines[1], "TOKEN="))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
	u, err := s.GetUser(context.Background(), claims.UserID)
	if err != nil || u.Email != "root@example.com" {
		t.Fatalf("user = %+v, %v", u, err)
	}

	err = Run(context.Background(), cfg, s, auth, &bytes.Buffer{})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate email err = %v", err)
	}
}

func TestRunStoresBareLowercaseEmail(t *testing.T) {
	s := storetest.Open(t)
	auth := middleware.NewAuthenticator("secret")
	ctx := context.Background()

	cfg := Config{Name: " Alice ", Email: " Alice@Example.com ", Role: "player", TTL: time.Hour}
	if err := Run(ctx, cfg, s, auth, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	u, err := s.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if u.Email != "alice@example.com" || u.Name != "Alice" {
		t.Fatalf("stored user = %q <%q>", u.Name, u.Email)
	}

	named := Config{Name: "Alice", Email: "Alice Smith <alice@example.com>", Role: "player", TTL: time.Hour}
	if err := Run(ctx, named, s, auth, &bytes.Buffer{}); err == nil {
		t.Fatal("display-name email accepted")
	}
}
