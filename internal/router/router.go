package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.DELETE("/:project_id", handlers.DeleteProject)
			projects.GET("/:project_id/export", handlers.ExportProject)

			// Membership (settings operations, owner-only invite)
			projects.POST("/:project_id/invite", handlers.InviteMember)
			projects.GET("/:project_id/members", handlers.ListMembers)

			// Task board
			projects.GET("/:project_id/tasks", handlers.ListTasks)
			projects.POST("/:project_id/tasks", handlers.CreateTask)
			projects.GET("/:project_id/tasks/:task_id", handlers.GetTask)
			projects.PATCH("/:project_id/tasks/:task_id", handlers.UpdateTask)
			projects.DELETE("/:project_id/tasks/:task_id", handlers.DeleteTask)
		}
	}

	return r
}
