package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/Himanshu718-creater/blog-platform/config"
	"github.com/Himanshu718-creater/blog-platform/controllers"
	"github.com/Himanshu718-creater/blog-platform/middleware"
	"github.com/Himanshu718-creater/blog-platform/store"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, posts store.PostStore) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	if cfg.UploadURLPrefix != "" && cfg.UploadDir != "" {
		r.Static(cfg.UploadURLPrefix, cfg.UploadDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(posts)
	uploadController := controllers.NewUploadController(cfg.UploadDir, cfg.UploadURLPrefix, cfg.UploadMaxSizeMB)
	writeLimit := middleware.RateLimit(cfg.RateLimitPerMinute)

	api := r.Group("/api")

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/by-slug/:slug", postController.GetPostBySlug)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.POST("", writeLimit, postController.CreatePost)
	postsGroup.PUT("/:id", writeLimit, postController.UpdatePost)
	postsGroup.DELETE("/:id", writeLimit, postController.DeletePost)

	api.POST("/upload", writeLimit, uploadController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40402, "not found")
	})

	return r
}
