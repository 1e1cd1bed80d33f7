package routes

import (
	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/controllers"
	"brigade_tracker/internal/middleware"
)

func SiteRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, sc *controllers.SiteController) {
	sites := api.Group("/sites")
	sites.Use(auth)
	{
		sites.GET("/available", sc.ListAvailableSites)
		sites.GET("/region/:region_id", middleware.ValidateUUID("region_id"), sc.ListSitesByRegion)
		sites.GET("/:id", middleware.ValidateUUID("id"), sc.GetSite)
		sites.GET("/:id/geojson", middleware.ValidateUUID("id"), sc.SiteGeoJSON)
	}

	admin := sites.Group("")
	admin.Use(middleware.RequireRole(middleware.RolePlatformAdmin))
	{
		admin.GET("", sc.ListSites)
		admin.GET("/stats", sc.SiteStats)
		admin.GET("/state/:state", sc.ListSitesByState)
		admin.GET("/export.xlsx", sc.ExportSites)
		admin.POST("/generate", sc.GenerateSites)
		admin.PUT("/:id/approve", middleware.ValidateUUID("id"), sc.ApproveSite)
		admin.PUT("/:id/reject", middleware.ValidateUUID("id"), sc.RejectSite)
		admin.DELETE("/:id", middleware.ValidateUUID("id"), sc.DeleteSite)
	}
}

func SubPlotRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, pc *controllers.SubPlotController) {
	subplots := api.Group("/subplots")
	subplots.Use(auth)
	{
		subplots.GET("/site/:site_id", middleware.ValidateUUID("site_id"), pc.ListSubPlotsBySite)
		subplots.GET("/:id", middleware.ValidateUUID("id"), pc.GetSubPlot)
	}

	admin := subplots.Group("")
	admin.Use(middleware.RequireRole(middleware.RolePlatformAdmin))
	{
		admin.PUT("/:id", middleware.ValidateUUID("id"), pc.UpdateSubPlot)
		admin.DELETE("/:id", middleware.ValidateUUID("id"), pc.DeleteSubPlot)
	}
}
