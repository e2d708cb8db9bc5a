package routes

import (
	"github.com/gin-gonic/gin"

	"sport_sessions/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	h := controllers.NewWebSocketController(d.Auth, d.Hub)
	ws := r.Group("/ws")
	{
		ws.GET("/sessions", h.HandleSessionFeed)
	}
}
