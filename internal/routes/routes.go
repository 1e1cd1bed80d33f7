package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brigade_tracker/internal/controllers"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/logger"
	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/services"
)

// Deps is everything the router hands to its controllers.
type Deps struct {
	DB          *gorm.DB
	Services    *services.Services
	Identity    middleware.IdentityProvider
	Hub         *events.Hub
	FrontendURL string
	AccessLog   bool
	Version     string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Request logging middleware
	if d.AccessLog {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(logger.Writer()),
			ginlog.WithSkipPath([]string{"/health"}),
		))
	}

	HealthRoutes(r, controllers.NewHealthController(d.DB, d.Version))
	WebSocketRoutes(r, controllers.NewEventsController(d.Hub, d.Identity, d.FrontendURL))

	api := r.Group("/api")
	auth := middleware.RequireAuth(d.Identity)

	RegionRoutes(api, auth, controllers.NewRegionController(d.Services.Regions))
	SiteRoutes(api, auth, controllers.NewSiteController(d.Services.Sites))
	SubPlotRoutes(api, auth, controllers.NewSubPlotController(d.Services.SubPlots))
	BrigadeRoutes(api, auth, controllers.NewBrigadeController(d.Services.Brigades))
	WorkerRoutes(api, auth, controllers.NewWorkerController(d.Services.Workers))
	AssignmentRoutes(api, auth, controllers.NewAssignmentController(d.Services.Assignments, d.Services.Workers))

	return r
}

func HealthRoutes(r *gin.Engine, hc *controllers.HealthController) {
	r.GET("/", hc.Root)
	r.GET("/health", hc.Health)
}
