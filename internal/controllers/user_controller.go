package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sport_sessions/internal/models"
)

// UserStore reads and updates user profiles.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateUserName(ctx context.Context, id uint, name string) (*models.User, error)
}

type UserController struct {
	users   UserStore
	timeout time.Duration
}

func NewUserController(users UserStore, timeout time.Duration) *UserController {
	return &UserController{users: users, timeout: timeout}
}

type profileResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

func toProfile(u *models.User) profileResponse {
	return profileResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *UserController) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
		return
	}
	logrus.WithError(err).Error("User store failure.")
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "user store unavailable", "code": "unavailable"})
}

// Profile handles GET /users/me.
func (h *UserController) Profile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.GetUser(ctx, a.UserID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

// UpdateProfile handles PATCH /users/me. Only the name can change; a blank
// name leaves the profile untouched.
func (h *UserController) UpdateProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.UpdateUserName(ctx, a.UserID, req.Name)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}
