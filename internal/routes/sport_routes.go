package routes

import (
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
)

func SportRoutes(r *gin.Engine, d Deps) {
	h := controllers.NewSportController(d.Sports)
	r.GET("/sports", d.Auth.RequireAuth(), h.ListSports)
}
