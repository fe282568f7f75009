package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/middleware"
)

// RouterConfig holds what the router needs beyond the handlers themselves.
type RouterConfig struct {
	Log         *logger.Logger
	Sessions    middleware.SessionStore
	Health      *HealthHandler
	CORSOrigins []string
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.GET("/health", cfg.Health.Health)
	router.GET("/health/ready", cfg.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.GET("/info", cfg.Health.Info)

	regionHandler := NewRegionHandler()
	propertyHandler := NewPropertyHandler()
	searchHandler := NewSearchHandler()
	mapHandler := NewMapHandler()
	snapshotHandler := NewSnapshotHandler()

	api := v1.Group("")
	api.Use(middleware.Session(cfg.Sessions))
	{
		regions := api.Group("/regions")
		{
			regions.GET("", regionHandler.List)
			regions.POST("/:key/request", regionHandler.Request)
			regions.POST("/:key/toggle", regionHandler.Toggle)
			regions.GET("/:key/statistics", regionHandler.Statistics)
		}

		api.GET("/properties", propertyHandler.List)
		api.POST("/properties/refresh", propertyHandler.Refresh)
		api.GET("/filters", propertyHandler.GetFilters)
		api.PUT("/filters", propertyHandler.SetFilters)

		search := api.Group("/search")
		{
			search.GET("", searchHandler.Search)
			search.POST("/input", searchHandler.Input)
			search.GET("/results", searchHandler.Results)
			search.POST("/select", searchHandler.Select)
		}

		maps := api.Group("/map")
		{
			maps.GET("", mapHandler.Get)
			maps.PUT("/viewport", mapHandler.SetViewport)
			maps.POST("/fit", mapHandler.Fit)
			maps.DELETE("/highlight", mapHandler.ClearHighlight)
			maps.GET("/commands", mapHandler.Commands)
		}

		api.GET("/snapshot", snapshotHandler.Get)
	}

	return router
}
