package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tercih-asistani/app/controllers"
)

// SetupAPIRoutes registers the versioned API surface.
func SetupAPIRoutes(router *gin.Engine, chatController *controllers.ChatController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		chat := v1.Group("/chat")
		{
			chat.POST("/messages", chatController.PostMessage)
			chat.POST("/scenarios", chatController.PostScenarios)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/catalog/reload", adminController.ReloadCatalog)
			admin.GET("/stats", adminController.GetStats)
		}

		v1.GET("/health", chatController.HealthCheck)
	}
}

// SetupHealthRoutes registers the unversioned probes.
func SetupHealthRoutes(router *gin.Engine, chatController *controllers.ChatController) {
	router.GET("/health", chatController.HealthCheck)
	router.GET("/ready", chatController.HealthCheck)
	router.GET("/live", chatController.HealthCheck)
}

// SetupAllRoutes wires middleware, routes and the 404 handler.
func SetupAllRoutes(router *gin.Engine, chatController *controllers.ChatController, adminController *controllers.AdminController) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	SetupHealthRoutes(router, chatController)
	SetupAPIRoutes(router, chatController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}
