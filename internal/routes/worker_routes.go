package routes

import (
	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/controllers"
	"brigade_tracker/internal/middleware"
)

func WorkerRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, wc *controllers.WorkerController) {
	workers := api.Group("/workers")

	// Public: the invitation token is the credential.
	workers.POST("/register", wc.RegisterWorker)

	authed := workers.Group("")
	authed.Use(auth)
	{
		authed.GET("/:id", middleware.ValidateUUID("id"), wc.GetWorker)
		authed.PUT("/:id", middleware.ValidateUUID("id"), wc.UpdateWorker)
	}

	admin := authed.Group("")
	admin.Use(middleware.RequireRole(middleware.RoleBrigadeAdmin))
	{
		admin.GET("", wc.ListWorkers)
		admin.GET("/available", wc.ListAvailableWorkers)
		admin.GET("/region/:region_id", middleware.ValidateUUID("region_id"), wc.ListWorkersByRegion)
		admin.POST("/invite", wc.InviteWorker)
		admin.PUT("/:id/suspend", middleware.ValidateUUID("id"), wc.SuspendWorker)
		admin.PUT("/:id/activate", middleware.ValidateUUID("id"), wc.ActivateWorker)
		admin.DELETE("/:id", middleware.ValidateUUID("id"), wc.DeleteWorker)
	}
}
