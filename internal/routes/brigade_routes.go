package routes

import (
	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/controllers"
	"brigade_tracker/internal/middleware"
)

func BrigadeRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, bc *controllers.BrigadeController) {
	brigades := api.Group("/brigades")
	brigades.Use(auth)
	{
		brigades.GET("/:id", middleware.ValidateUUID("id"), bc.GetBrigade)
	}

	admin := brigades.Group("")
	admin.Use(middleware.RequireRole(middleware.RoleBrigadeAdmin))
	{
		admin.GET("", bc.ListBrigades)
		admin.GET("/state/:state", bc.ListBrigadesByState)
		admin.POST("", bc.CreateBrigade)
		admin.PUT("/:id", middleware.ValidateUUID("id"), bc.UpdateBrigade)
		admin.PUT("/:id/state", middleware.ValidateUUID("id"), bc.ChangeBrigadeState)
		admin.DELETE("/:id", middleware.ValidateUUID("id"), bc.DeleteBrigade)
	}
}

func AssignmentRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, ac *controllers.AssignmentController) {
	assignments := api.Group("/assignments")
	assignments.Use(auth)
	{
		assignments.GET("/brigade/:brigade_id", middleware.ValidateUUID("brigade_id"), ac.ListByBrigade)
		assignments.GET("/worker/:worker_id", middleware.ValidateUUID("worker_id"), ac.ListByWorker)
	}

	admin := assignments.Group("")
	admin.Use(middleware.RequireRole(middleware.RoleBrigadeAdmin))
	{
		admin.POST("/invite", ac.InviteToBrigade)
		admin.DELETE("/:brigade_id/:worker_id", middleware.ValidateUUID("brigade_id", "worker_id"), ac.Unassign)
	}

	worker := assignments.Group("")
	worker.Use(middleware.RequireRole(middleware.RoleFieldWorker))
	{
		worker.GET("/pending/:worker_id", middleware.ValidateUUID("worker_id"), ac.ListPending)
		worker.PUT("/:brigade_id/:worker_id/respond", middleware.ValidateUUID("brigade_id", "worker_id"), ac.RespondToInvitation)
	}
}
