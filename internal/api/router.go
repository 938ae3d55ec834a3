package api

import (
	"github.com/gin-gonic/gin"

	"github.com/XR-stb/GMatch/internal/api/handlers"
	"github.com/XR-stb/GMatch/internal/api/middleware"
	"github.com/XR-stb/GMatch/internal/match"
	"github.com/XR-stb/GMatch/internal/server"
)

// SetupRouter builds the admin/diagnostics surface: health, matchmaking
// status and the WebSocket transport endpoint.
func SetupRouter(manager *match.Manager, matchServer *server.MatchServer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/health", handlers.HealthCheck)

	mm := handlers.NewMatchmakingHandler(manager)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdminAPIRateLimit())
	{
		v1.GET("/status", mm.Status)
		v1.GET("/rooms", mm.Rooms)
		v1.GET("/players/:id", mm.Player)
	}

	router.GET("/ws", func(c *gin.Context) {
		matchServer.ServeWS(c.Writer, c.Request)
	})

	return router
}
