package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"sport_sessions/internal/booking"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// DefaultTokenTTL matches the lifetime of tokens issued by the provisioning tool.
const DefaultTokenTTL = 72 * time.Hour

// Claims carries the caller identity inside a bearer token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and checks HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

func (a *Authenticator) GenerateToken(userID uint, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := a.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) ValidateToken(tokenStr string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user_id")
	}
	return &claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// authenticate validates the bearer token and stores the caller in c.
// It aborts with 401 and returns false on failure.
func (a *Authenticator) authenticate(c *gin.Context) bool {
	tok, ok := bearerToken(c)
	if !ok {
		unauthorized(c, "Missing or invalid Authorization header")
		return false
	}
	claims, err := a.ValidateToken(tok)
	if err != nil {
		unauthorized(c, "Invalid or expired token")
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	return true
}

// RequireAuth ensures a valid JWT is present.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.authenticate(c) {
			c.Next()
		}
	}
}

// OptionalAuth records the caller when a token is sent and lets anonymous
// requests through. A malformed or expired token is still rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" || a.authenticate(c) {
			c.Next()
		}
	}
}

// RequireAuthWithRole ensures the JWT is valid and the user has a specific role.
func (a *Authenticator) RequireAuthWithRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		if c.GetString(ContextRole) != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(c *gin.Context) (booking.Actor, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return booking.Actor{}, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return booking.Actor{}, false
	}
	return booking.Actor{UserID: id, Role: c.GetString(ContextRole)}, true
}
