package routes

import (
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
)

func UserRoutes(r *gin.Engine, d Deps) {
	h := controllers.NewUserController(d.Users, d.Timeout)
	users := r.Group("/users")
	users.Use(d.Auth.RequireAuth())
	{
		users.GET("/me", h.Profile)
		users.PATCH("/me", h.UpdateProfile)
	}
}
