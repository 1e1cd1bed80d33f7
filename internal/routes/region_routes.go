package routes

import (
	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/controllers"
	"brigade_tracker/internal/middleware"
)

func RegionRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, rc *controllers.RegionController) {
	regions := api.Group("/regions")
	regions.Use(auth)
	{
		regions.GET("", rc.ListRegions)
		regions.GET("/code/:code", rc.GetRegionByCode)
		regions.GET("/:id", middleware.ValidateUUID("id"), rc.GetRegion)
	}
}
