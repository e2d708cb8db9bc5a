// Package provision registers a user profile and issues its bearer token.
package provision

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sport_sessions/internal/models"
)

var validate = validator.New()

// Config holds the profile to create.
type Config struct {
	Name  string        `validate:"required"`
	Email string        `validate:"required,email"`
	Role  string        `validate:"oneof=player admin"`
	TTL   time.Duration `validate:"gt=0"`
}

type UserCreator interface {
	CreateUser(ctx context.Context, user *models.User) error
}

type TokenIssuer interface {
	GenerateToken(userID uint, role string, ttl time.Duration) (string, error)
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Role: models.RolePlayer, TTL: 72 * time.Hour}
	fs.StringVar(&cfg.Name, "name", "", "display name (required)")
	fs.StringVar(&cfg.Email, "email", "", "unique email address (required)")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "player or admin")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize trims the profile fields and checks them. Email must be a bare
// address; display-name forms are rejected.
func (c Config) normalize() (Config, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if err := validate.Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid profile: %w", err)
	}
	return c, nil
}

// Run creates the user and writes its id and token to out.
func Run(ctx context.Context, cfg Config, users UserCreator, tokens TokenIssuer, out io.Writer) error {
	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}
	if out == nil {
		return errors.New("output is required")
	}

	user := &models.User{Name: cfg.Name, Email: cfg.Email, Role: cfg.Role}
	if err := users.CreateUser(ctx, user); err != nil {
		return err
	}
	token, err := tokens.GenerateToken(user.ID, user.Role, cfg.TTL)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintf(out, "USER_ID=%d\nTOKEN=%s\n", user.ID, token)
	return err
}
