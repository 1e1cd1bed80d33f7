package routes

import (
	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/controllers"
)

// WebSocketRoutes authenticates in the handler, from the token query parameter.
func WebSocketRoutes(r *gin.Engine, ec *controllers.EventsController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/events", ec.HandleEventsWebSocket)
	}
}
