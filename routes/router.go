package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmedelbailey/occla-backend/config"
	"github.com/ahmedelbailey/occla-backend/controllers"
	"github.com/ahmedelbailey/occla-backend/middleware"
	"github.com/ahmedelbailey/occla-backend/realtime"
	"github.com/ahmedelbailey/occla-backend/storage"
	"github.com/ahmedelbailey/occla-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, images *storage.ImageStore, hub *realtime.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace gin's default console logger with a file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// uploaded post images are served directly
	r.Static("/images", cfg.ImagesDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	// realtime feed notifications
	r.GET("/ws", func(ctx *gin.Context) {
		hub.ServeWS(ctx.Writer, ctx.Request)
	})

	authController := controllers.NewAuthController(db)
	feedController := controllers.NewFeedController(db, images, hub)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.PUT("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/status", middleware.AuthRequired(), authController.GetStatus)
	authGroup.PUT("/status", middleware.AuthRequired(), authController.UpdateStatus)

	feedGroup := api.Group("/feed")
	feedGroup.GET("/posts", feedController.ListPosts)
	feedGroup.GET("/posts/:id", feedController.GetPost)

	protected := feedGroup.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", feedController.CreatePost)
	protected.PUT("/posts/:id", feedController.UpdatePost)
	protected.DELETE("/posts/:id", feedController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
