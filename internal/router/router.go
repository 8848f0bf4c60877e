package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"taskboard-be/internal/controllers"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/middleware"
)

// Options carries everything the HTTP surface is assembled from
type Options struct {
	AuthController *controllers.AuthController
	TaskController *controllers.TaskController
	Verifier       middleware.TokenVerifier
	AuthHeader     string
	Logger         logrus.FieldLogger
	Metrics        *metrics.Metrics

	// A non-positive rate disables the corresponding limiter.
	RateLimitRPS       float64
	RateLimitBurst     int
	RateLimitAuthRPS   float64
	RateLimitAuthBurst int
}

// New builds the gin engine. Rate limiter sweepers stop when ctx is done.
func New(ctx context.Context, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))

	// Health check and metrics (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("")
	if opts.RateLimitRPS > 0 {
		general := middleware.NewRateLimiter(ctx, rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
		api.Use(general.LimitMiddleware())
	}

	requireAuth := middleware.AuthMiddleware(opts.Verifier, opts.AuthHeader, opts.Metrics)

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	if opts.RateLimitAuthRPS > 0 {
		strict := middleware.NewRateLimiter(ctx, rate.Limit(opts.RateLimitAuthRPS), opts.RateLimitAuthBurst)
		auth.Use(strict.LimitMiddleware())
	}
	{
		auth.POST("/signup", opts.AuthController.Signup)
		auth.POST("/login", opts.AuthController.Login)
		auth.GET("/user", requireAuth, opts.AuthController.GetUser)
		auth.POST("/change-password", requireAuth, opts.AuthController.ChangePassword)
		auth.PUT("/change-password", requireAuth, opts.AuthController.ChangePassword)
	}

	// Task routes - require JWT authentication
	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", opts.TaskController.ListTasks)
		tasks.POST("", opts.TaskController.CreateTask)
		tasks.PUT("/:id", opts.TaskController.UpdateTask)
		tasks.DELETE("/:id", opts.TaskController.DeleteTask)
	}

	return router
}
