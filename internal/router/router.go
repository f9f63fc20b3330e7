package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskdeck/internal/handlers"
	"github.com/monocle-dev/taskdeck/internal/middleware"
)

// NewRouter wires the HTTP surface. uploadDir is served read-only under
// /uploads.
func NewRouter(h *handlers.Handler, allowedOrigins []string, uploadDir string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.MaxMultipartMemory = 8 << 20

	r.GET("/", h.Index)
	r.Static("/uploads", uploadDir)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
	}

	auth := r.Group("/auth")
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.GET("/register", h.RegisterPage)
		auth.POST("/register", h.Register)
		auth.GET("/logout", h.Logout)
	}

	oauth := r.Group("/oauth")
	{
		oauth.GET("/login", h.OAuthLogin)
		oauth.GET("/callback", h.OAuthCallback)
	}

	tasks := r.Group("/tasks", middleware.RequireIdentity(h.Sessions))
	{
		tasks.GET("/", h.TasksIndex)
		tasks.GET("/dashboard", h.Dashboard)
		tasks.POST("/dashboard", h.CreateTask)
		tasks.GET("/edit_task/:task_id", h.EditTaskPage)
		tasks.POST("/edit_task/:task_id", h.UpdateTask)
		tasks.POST("/toggle_complete/:task_id", h.ToggleComplete)
		tasks.GET("/ws", h.TasksSocket)
	}

	return r
}
