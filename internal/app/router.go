package app

import (
	"cognipath_backend/internal/config"
	"cognipath_backend/internal/middleware"
	"cognipath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// works with or without an account; anonymous results are not saved
		public.POST("/generate-path", middleware.TryAuthMiddleware(cfg), c.path.GeneratePath)
	}

	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authorized.GET("/profile", c.auth.Profile)

		authorized.GET("/paths", c.path.ListPaths)
		authorized.GET("/paths/:pathId", c.path.GetPath)
		authorized.DELETE("/paths/:pathId", c.path.DeletePath)

		authorized.GET("/paths/:pathId/modules/:moduleId", c.module.GetModule)
		authorized.PUT("/paths/:pathId/modules/:moduleId", c.module.UpdateModule)
		authorized.POST("/paths/:pathId/modules/:moduleId/regenerate", c.module.Regenerate)
		authorized.POST("/generate-lesson", c.module.GenerateLesson)

		authorized.POST("/chat", c.chat.Send)
		authorized.GET("/paths/:pathId/messages", c.chat.PathMessages)
		authorized.GET("/paths/:pathId/modules/:moduleId/messages", c.chat.ModuleMessages)

		authorized.POST("/uploads", c.upload.Add)
		authorized.GET("/uploads", c.upload.List)
		authorized.DELETE("/uploads/:fileId", c.upload.Remove)
	}
}
