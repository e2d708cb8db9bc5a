package routes

import (
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
)

func SessionRoutes(r *gin.Engine, d Deps) {
	var events controllers.Publisher
	if d.Hub != nil {
		events = d.Hub
	}
	h := controllers.NewSessionController(d.Sessions, events)

	r.GET("/sessions", d.Auth.OptionalAuth(), h.ListAvailable)

	sessions := r.Group("/sessions")
	sessions.Use(d.Auth.RequireAuth())
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/me/joined", h.ListJoined)
		sessions.GET("/me/created", h.ListCreated)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/join", h.JoinSession)
		sessions.POST("/:id/cancel", h.CancelSession)
	}
}
