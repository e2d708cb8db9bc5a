package routes

import (
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
	"sport_sessions/internal/models"
)

func AdminRoutes(r *gin.Engine, d Deps) {
	h := controllers.NewReportController(d.Reports)
	admin := r.Group("/admin")
	admin.Use(d.Auth.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/reports", h.ActivityReport)
	}
}
