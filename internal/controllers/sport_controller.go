package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sport_sessions/internal/models"
)

type SportLister interface {
	ListSports(ctx context.Context) ([]models.Sport, error)
}

type SportController struct {
	sports SportLister
}

func NewSportController(sports SportLister) *SportController {
	return &SportController{sports: sports}
}

type sportResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ListSports handles GET /sports.
func (h *SportController) ListSports(c *gin.Context) {
	sports, err := h.sports.ListSports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]sportResponse, len(sports))
	for i, s := range sports {
		out[i] = sportResponse{ID: s.ID, Name: s.Name}
	}
	c.JSON(http.StatusOK, out)
}
